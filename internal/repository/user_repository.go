// Package repository provides database access, one repository per
// collection, all on the database.PGXDB interface so tests can substitute
// a transaction.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/database"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user after validating its role invariants.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return apperr.NewValidationError("invalid user: %v", err)
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, name, role, roles, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.Name, string(user.Role), rolesToStrings(user.Roles), user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	var user models.User
	var role string
	var roles []string
	err := r.db.QueryRow(ctx, `
		SELECT id, email, name, role, roles, password_hash, created_at, updated_at
		FROM users WHERE `+column+` = $1
	`, value).Scan(&user.ID, &user.Email, &user.Name, &role, &roles,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", value, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Role = models.Role(role)
	user.Roles = stringsToRoles(roles)
	return &user, nil
}

// UpdateRoles rewrites a user's primary and additional roles.
func (r *UserRepository) UpdateRoles(ctx context.Context, id string, role models.Role, roles []models.Role) error {
	u := models.User{ID: id, Role: role, Roles: roles}
	if err := u.Validate(); err != nil {
		return apperr.NewValidationError("invalid roles: %v", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET role = $2, roles = $3, updated_at = NOW() WHERE id = $1
	`, id, string(role), rolesToStrings(roles))
	if err != nil {
		return fmt.Errorf("failed to update roles: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(ss []string) []models.Role {
	if len(ss) == 0 {
		return nil
	}
	out := make([]models.Role, len(ss))
	for i, s := range ss {
		out[i] = models.Role(s)
	}
	return out
}

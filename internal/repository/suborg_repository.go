package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/database"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// SubOrgRepository handles sub-organization database operations.
type SubOrgRepository struct {
	db database.PGXDB
}

// NewSubOrgRepository creates a new SubOrgRepository.
func NewSubOrgRepository(db database.PGXDB) *SubOrgRepository {
	return &SubOrgRepository{db: db}
}

// Create stores a new sub-organization.
func (r *SubOrgRepository) Create(ctx context.Context, org *models.SubOrganization) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO sub_organizations (id, name, budget_allocated, budget_spent)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, org.ID, org.Name, org.BudgetAllocated, org.BudgetSpent,
	).Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sub-organization: %w", err)
	}
	return nil
}

// GetByID retrieves a sub-organization by id.
func (r *SubOrgRepository) GetByID(ctx context.Context, id string) (*models.SubOrganization, error) {
	var org models.SubOrganization
	err := r.db.QueryRow(ctx, `
		SELECT id, name, budget_allocated, budget_spent, created_at, updated_at
		FROM sub_organizations WHERE id = $1
	`, id).Scan(&org.ID, &org.Name, &org.BudgetAllocated, &org.BudgetSpent,
		&org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sub-organization %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-organization: %w", err)
	}
	return &org, nil
}

// List retrieves every sub-organization, name-ordered.
func (r *SubOrgRepository) List(ctx context.Context) ([]models.SubOrganization, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, budget_allocated, budget_spent, created_at, updated_at
		FROM sub_organizations ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.SubOrganization
	for rows.Next() {
		var org models.SubOrganization
		if err := rows.Scan(&org.ID, &org.Name, &org.BudgetAllocated, &org.BudgetSpent,
			&org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sub-organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// Update rewrites name and budget ceiling.
func (r *SubOrgRepository) Update(ctx context.Context, org *models.SubOrganization) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sub_organizations SET name = $2, budget_allocated = $3, updated_at = NOW()
		WHERE id = $1
	`, org.ID, org.Name, org.BudgetAllocated)
	if err != nil {
		return fmt.Errorf("failed to update sub-organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sub-organization %s: %w", org.ID, apperr.ErrNotFound)
	}
	return nil
}

// UpdateBudgetSpent rewrites the derived spend aggregate. Called by
// reconciliation; idempotent.
func (r *SubOrgRepository) UpdateBudgetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sub_organizations SET budget_spent = $2, updated_at = NOW() WHERE id = $1
	`, id, spent)
	if err != nil {
		return fmt.Errorf("failed to update budget spent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sub-organization %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

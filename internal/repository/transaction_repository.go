package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/database"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// TransactionRepository handles transaction database operations.
type TransactionRepository struct {
	db database.PGXDB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db database.PGXDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// ExistsByDescription reports whether a transaction with this description
// is already stored. Description is the import dedup key.
func (r *TransactionRepository) ExistsByDescription(ctx context.Context, description string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE description = $1)
	`, models.NormalizeDescription(description)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check description: %w", err)
	}
	return exists, nil
}

// Create stores a new transaction and its split allocation, if any.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (id, post_date, description, debit_amount, status,
			sub_org_id, receipt_url, linked_po_id, linked_po_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, tx.ID, tx.PostDate, models.NormalizeDescription(tx.Description), tx.DebitAmount,
		tx.Status, tx.SubOrgID, tx.ReceiptURL, tx.LinkedPOID, tx.LinkedPOName,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return r.writeAllocations(ctx, tx)
}

func (r *TransactionRepository) writeAllocations(ctx context.Context, tx *models.Transaction) error {
	for i, a := range tx.Allocations {
		_, err := r.db.Exec(ctx, `
			INSERT INTO transaction_allocations (transaction_id, position, sub_org_id, sub_org_name, amount, percentage)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, tx.ID, i, a.SubOrgID, a.SubOrgName, a.Amount, a.Percentage)
		if err != nil {
			return fmt.Errorf("failed to insert transaction allocation %d: %w", i, err)
		}
	}
	return nil
}

// GetByID retrieves a transaction with its split allocation.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.QueryRow(ctx, `
		SELECT id, post_date, description, debit_amount, status, sub_org_id,
		       receipt_url, linked_po_id, linked_po_name, created_at, updated_at
		FROM transactions WHERE id = $1
	`, id).Scan(&tx.ID, &tx.PostDate, &tx.Description, &tx.DebitAmount, &tx.Status,
		&tx.SubOrgID, &tx.ReceiptURL, &tx.LinkedPOID, &tx.LinkedPOName,
		&tx.CreatedAt, &tx.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if err := r.loadAllocations(ctx, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) loadAllocations(ctx context.Context, tx *models.Transaction) error {
	rows, err := r.db.Query(ctx, `
		SELECT sub_org_id, sub_org_name, amount, percentage
		FROM transaction_allocations WHERE transaction_id = $1 ORDER BY position
	`, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to query transaction allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a models.TxAllocation
		if err := rows.Scan(&a.SubOrgID, &a.SubOrgName, &a.Amount, &a.Percentage); err != nil {
			return fmt.Errorf("failed to scan transaction allocation: %w", err)
		}
		tx.Allocations = append(tx.Allocations, a)
	}
	return rows.Err()
}

// ListAll retrieves every transaction, newest post date first.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return r.list(ctx, `SELECT id FROM transactions ORDER BY post_date DESC, id`)
}

// ListRecent retrieves transactions created since the cutoff.
func (r *TransactionRepository) ListRecent(ctx context.Context, since time.Time) ([]models.Transaction, error) {
	return r.list(ctx, `SELECT id FROM transactions WHERE created_at >= $1 ORDER BY created_at DESC, id`, since)
}

func (r *TransactionRepository) list(ctx context.Context, sql string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(ids))
	for _, id := range ids {
		tx, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

// UpdateAllocation replaces the transaction's allocation: either the legacy
// single sub-org or a split list, never both.
func (r *TransactionRepository) UpdateAllocation(ctx context.Context, id string, subOrgID string, allocations []models.TxAllocation) error {
	if subOrgID != "" && len(allocations) > 0 {
		return apperr.NewValidationError("provide a single sub-organization or a split, not both")
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET sub_org_id = $2, updated_at = NOW() WHERE id = $1
	`, id, subOrgID)
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", id, apperr.ErrNotFound)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM transaction_allocations WHERE transaction_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear transaction allocations: %w", err)
	}
	tx := models.Transaction{ID: id, Allocations: allocations}
	return r.writeAllocations(ctx, &tx)
}

// UpdateReceipt attaches a receipt URL. The receipt itself is an opaque
// blob-storage reference.
func (r *TransactionRepository) UpdateReceipt(ctx context.Context, id, receiptURL string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET receipt_url = $2, updated_at = NOW() WHERE id = $1
	`, id, receiptURL)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// LinkPO records which purchase order this transaction settles. The link
// is by value; deleting the purchase order leaves it dangling.
func (r *TransactionRepository) LinkPO(ctx context.Context, id, poID, poName string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET linked_po_id = $2, linked_po_name = $3, updated_at = NOW() WHERE id = $1
	`, id, poID, poName)
	if err != nil {
		return fmt.Errorf("failed to link purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

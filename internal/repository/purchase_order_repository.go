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

// PurchaseOrderRepository handles purchase order database operations,
// including the owned line-item and allocation child rows.
type PurchaseOrderRepository struct {
	db database.PGXDB
}

// NewPurchaseOrderRepository creates a new PurchaseOrderRepository.
func NewPurchaseOrderRepository(db database.PGXDB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

// Create stores a purchase order with its line items and allocation.
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO purchase_orders (
			id, name, creator_id, creator_name, status, total_amount,
			special_request, over_budget_justification, admin_comments,
			purchaser_comments, approved_by_id, approved_by_name,
			purchased_by_id, purchased_by_name, created_at, updated_at,
			approved_at, purchased_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at
	`, po.ID, po.Name, po.CreatorID, po.CreatorName, string(po.Status), po.TotalAmount,
		po.SpecialRequest, po.OverBudgetJustification, po.AdminComments,
		po.PurchaserComments, po.ApprovedByID, po.ApprovedByName,
		po.PurchasedByID, po.PurchasedByName, po.CreatedAt, po.UpdatedAt,
		po.ApprovedAt, po.PurchasedAt,
	).Scan(&po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create purchase order: %w", err)
	}
	if err := r.writeChildren(ctx, po); err != nil {
		return err
	}
	return nil
}

// Update rewrites a purchase order and replaces its child rows.
func (r *PurchaseOrderRepository) Update(ctx context.Context, po *models.PurchaseOrder) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchase_orders SET
			name = $2,
			status = $3,
			total_amount = $4,
			special_request = $5,
			over_budget_justification = $6,
			admin_comments = $7,
			purchaser_comments = $8,
			approved_by_id = $9,
			approved_by_name = $10,
			purchased_by_id = $11,
			purchased_by_name = $12,
			updated_at = $13,
			approved_at = $14,
			purchased_at = $15
		WHERE id = $1
	`, po.ID, po.Name, string(po.Status), po.TotalAmount,
		po.SpecialRequest, po.OverBudgetJustification, po.AdminComments,
		po.PurchaserComments, po.ApprovedByID, po.ApprovedByName,
		po.PurchasedByID, po.PurchasedByName, po.UpdatedAt,
		po.ApprovedAt, po.PurchasedAt)
	if err != nil {
		return fmt.Errorf("failed to update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %s: %w", po.ID, apperr.ErrNotFound)
	}

	for _, table := range []string{"po_line_items", "po_allocations"} {
		if _, err := r.db.Exec(ctx, `DELETE FROM `+table+` WHERE po_id = $1`, po.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return r.writeChildren(ctx, po)
}

func (r *PurchaseOrderRepository) writeChildren(ctx context.Context, po *models.PurchaseOrder) error {
	for i, li := range po.LineItems {
		_, err := r.db.Exec(ctx, `
			INSERT INTO po_line_items (po_id, position, vendor, item_name, sku, quantity, unit_price, link, notes, purchased)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, po.ID, i, li.Vendor, li.ItemName, li.SKU, li.Quantity, li.UnitPrice, li.Link, li.Notes, li.Purchased)
		if err != nil {
			return fmt.Errorf("failed to insert line item %d: %w", i, err)
		}
	}
	for i, a := range po.Organizations {
		_, err := r.db.Exec(ctx, `
			INSERT INTO po_allocations (po_id, position, sub_org_id, sub_org_name, allocated_amount, percentage)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, po.ID, i, a.SubOrgID, a.SubOrgName, a.Amount, a.Percentage)
		if err != nil {
			return fmt.Errorf("failed to insert allocation %d: %w", i, err)
		}
	}
	return nil
}

// GetByID retrieves a purchase order with its line items and allocation.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	var status string
	err := r.db.QueryRow(ctx, `
		SELECT id, name, creator_id, creator_name, status, total_amount,
		       special_request, over_budget_justification, admin_comments,
		       purchaser_comments, approved_by_id, approved_by_name,
		       purchased_by_id, purchased_by_name, created_at, updated_at,
		       approved_at, purchased_at
		FROM purchase_orders WHERE id = $1
	`, id).Scan(&po.ID, &po.Name, &po.CreatorID, &po.CreatorName, &status, &po.TotalAmount,
		&po.SpecialRequest, &po.OverBudgetJustification, &po.AdminComments,
		&po.PurchaserComments, &po.ApprovedByID, &po.ApprovedByName,
		&po.PurchasedByID, &po.PurchasedByName, &po.CreatedAt, &po.UpdatedAt,
		&po.ApprovedAt, &po.PurchasedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("purchase order %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	po.Status = models.Status(status)

	if err := r.loadChildren(ctx, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseOrderRepository) loadChildren(ctx context.Context, po *models.PurchaseOrder) error {
	rows, err := r.db.Query(ctx, `
		SELECT vendor, item_name, sku, quantity, unit_price, link, notes, purchased
		FROM po_line_items WHERE po_id = $1 ORDER BY position
	`, po.ID)
	if err != nil {
		return fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li models.LineItem
		if err := rows.Scan(&li.Vendor, &li.ItemName, &li.SKU, &li.Quantity,
			&li.UnitPrice, &li.Link, &li.Notes, &li.Purchased); err != nil {
			return fmt.Errorf("failed to scan line item: %w", err)
		}
		po.LineItems = append(po.LineItems, li)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	arows, err := r.db.Query(ctx, `
		SELECT sub_org_id, sub_org_name, allocated_amount, percentage
		FROM po_allocations WHERE po_id = $1 ORDER BY position
	`, po.ID)
	if err != nil {
		return fmt.Errorf("failed to query allocations: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var a models.OrgAllocation
		if err := arows.Scan(&a.SubOrgID, &a.SubOrgName, &a.Amount, &a.Percentage); err != nil {
			return fmt.Errorf("failed to scan allocation: %w", err)
		}
		po.Organizations = append(po.Organizations, a)
	}
	if err := arows.Err(); err != nil {
		return err
	}

	// Mirror a single-entry allocation into the legacy single-org fields.
	if len(po.Organizations) == 1 {
		po.SubOrgID = po.Organizations[0].SubOrgID
		po.SubOrgName = po.Organizations[0].SubOrgName
	}
	return nil
}

// List retrieves purchase orders newest-first, with children loaded.
func (r *PurchaseOrderRepository) List(ctx context.Context, limit int) ([]models.PurchaseOrder, error) {
	// LIMIT NULL means no limit; non-positive limits list everything.
	var arg any
	if limit > 0 {
		arg = limit
	}
	return r.list(ctx, `
		SELECT id FROM purchase_orders ORDER BY updated_at DESC, id LIMIT $1
	`, arg)
}

// ListByStatus retrieves purchase orders in one status, newest-first.
func (r *PurchaseOrderRepository) ListByStatus(ctx context.Context, status models.Status) ([]models.PurchaseOrder, error) {
	return r.list(ctx, `
		SELECT id FROM purchase_orders WHERE status = $1 ORDER BY updated_at DESC, id
	`, string(status))
}

func (r *PurchaseOrderRepository) list(ctx context.Context, sql string, arg any) ([]models.PurchaseOrder, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan purchase order id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pos := make([]models.PurchaseOrder, 0, len(ids))
	for _, id := range ids {
		po, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		pos = append(pos, *po)
	}
	return pos, nil
}

// Delete removes a purchase order and its children. Irreversible; linked
// transactions keep their now-dangling reference.
func (r *PurchaseOrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

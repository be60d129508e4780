package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			roles TEXT[] NOT NULL DEFAULT '{}',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sub_organizations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			budget_allocated DECIMAL(12, 2) NOT NULL DEFAULT 0,
			budget_spent DECIMAL(12, 2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS purchase_orders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			creator_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			total_amount DECIMAL(12, 2) NOT NULL DEFAULT 0,
			special_request TEXT NOT NULL DEFAULT '',
			over_budget_justification TEXT NOT NULL DEFAULT '',
			admin_comments TEXT NOT NULL DEFAULT '',
			purchaser_comments TEXT NOT NULL DEFAULT '',
			approved_by_id TEXT NOT NULL DEFAULT '',
			approved_by_name TEXT NOT NULL DEFAULT '',
			purchased_by_id TEXT NOT NULL DEFAULT '',
			purchased_by_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			approved_at TIMESTAMPTZ,
			purchased_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS po_line_items (
			id SERIAL PRIMARY KEY,
			po_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			vendor TEXT NOT NULL DEFAULT '',
			item_name TEXT NOT NULL,
			sku TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL,
			unit_price DECIMAL(12, 2) NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			purchased BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		`CREATE TABLE IF NOT EXISTS po_allocations (
			id SERIAL PRIMARY KEY,
			po_id TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			sub_org_id TEXT NOT NULL,
			sub_org_name TEXT NOT NULL DEFAULT '',
			allocated_amount DECIMAL(12, 2) NOT NULL,
			percentage DOUBLE PRECISION NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			post_date TIMESTAMPTZ NOT NULL,
			description TEXT NOT NULL UNIQUE,
			debit_amount DECIMAL(12, 2) NOT NULL,
			status TEXT NOT NULL DEFAULT 'posted',
			sub_org_id TEXT NOT NULL DEFAULT '',
			receipt_url TEXT NOT NULL DEFAULT '',
			linked_po_id TEXT NOT NULL DEFAULT '',
			linked_po_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS transaction_allocations (
			id SERIAL PRIMARY KEY,
			transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			sub_org_id TEXT NOT NULL,
			sub_org_name TEXT NOT NULL DEFAULT '',
			amount DECIMAL(12, 2) NOT NULL,
			percentage DOUBLE PRECISION NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS notification_reads (
			user_id TEXT NOT NULL,
			notification_id TEXT NOT NULL,
			read_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, notification_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_purchase_orders_status ON purchase_orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_orders_creator_id ON purchase_orders(creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_orders_updated_at ON purchase_orders(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_po_line_items_po_id ON po_line_items(po_id)`,
		`CREATE INDEX IF NOT EXISTS idx_po_allocations_po_id ON po_allocations(po_id)`,
		`CREATE INDEX IF NOT EXISTS idx_po_allocations_sub_org_id ON po_allocations(sub_org_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_post_date ON transactions(post_date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_sub_org_id ON transactions(sub_org_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_linked_po_id ON transactions(linked_po_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transaction_allocations_tx ON transaction_allocations(transaction_id)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

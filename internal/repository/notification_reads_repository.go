package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/po-tracker/internal/database"
)

// NotificationReadsRepository stores the per-user read-state map keyed by
// deterministic notification id. Because ids are content-derived, read
// state survives notification recomputation.
type NotificationReadsRepository struct {
	db database.PGXDB
}

// NewNotificationReadsRepository creates a new NotificationReadsRepository.
func NewNotificationReadsRepository(db database.PGXDB) *NotificationReadsRepository {
	return &NotificationReadsRepository{db: db}
}

// MarkRead records that the user has seen a notification. Idempotent.
func (r *NotificationReadsRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_reads (user_id, notification_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, notification_id) DO NOTHING
	`, userID, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// ReadState returns the user's read-state map.
func (r *NotificationReadsRepository) ReadState(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT notification_id FROM notification_reads WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query read state: %w", err)
	}
	defer rows.Close()

	state := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan read state: %w", err)
		}
		state[id] = true
	}
	return state, rows.Err()
}

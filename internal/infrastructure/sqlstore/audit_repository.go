package sqlstore

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
)

type AuditRepository struct {
	db *Database
}

func NewAuditRepository(db *Database) *AuditRepository {
	return &AuditRepository{db: db}
}

// SaveEvent ignores events whose id is already stored, so redelivery is harmless.
func (r *AuditRepository) SaveEvent(ctx context.Context, event *domain.AuctionEvent) error {
	query := r.db.insertIgnore() + ` INTO auction_events (id, item_id, event_type, user_id, amount, occurred_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.ItemID, string(event.Type), event.UserID,
		event.Amount, toMillis(event.Timestamp), toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("saving event %s: %w", event.ID, err)
	}
	return nil
}

func (r *AuditRepository) ListByItem(ctx context.Context, itemID int64) ([]*domain.AuctionEvent, error) {
	query := `
        SELECT id, item_id, event_type, user_id, amount, occurred_at
        FROM auction_events
        WHERE item_id = ?
        ORDER BY occurred_at ASC, created_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.AuctionEvent, 0)
	for rows.Next() {
		var event domain.AuctionEvent
		var eventType string
		var occurred int64

		if err := rows.Scan(&event.ID, &event.ItemID, &eventType, &event.UserID, &event.Amount, &occurred); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		event.Type = domain.AuctionEventType(eventType)
		event.Timestamp = fromMillis(occurred)
		events = append(events, &event)
	}
	return events, rows.Err()
}

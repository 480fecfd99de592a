package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
)

type SubscriptionRepository struct {
	db *Database
}

func NewSubscriptionRepository(db *Database) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetTier(ctx context.Context, userID string) (domain.Tier, bool, error) {
	var tier string
	err := r.db.QueryRowContext(ctx, `SELECT tier FROM user_subscriptions WHERE user_id = ?`, userID).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TierFree, false, nil
	}
	if err != nil {
		return domain.TierFree, false, fmt.Errorf("getting tier for %s: %w", userID, err)
	}
	return domain.ParseTier(tier), true, nil
}

func (r *SubscriptionRepository) SetTier(ctx context.Context, userID string, tier domain.Tier) error {
	query := `INSERT INTO user_subscriptions (user_id, tier, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET tier = excluded.tier, updated_at = excluded.updated_at`
	if r.db.Dialect == DialectMySQL {
		query = `INSERT INTO user_subscriptions (user_id, tier, updated_at) VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE tier = VALUES(tier), updated_at = VALUES(updated_at)`
	}

	if _, err := r.db.ExecContext(ctx, query, userID, string(tier), toMillis(time.Now())); err != nil {
		return fmt.Errorf("setting tier for %s: %w", userID, err)
	}
	return nil
}

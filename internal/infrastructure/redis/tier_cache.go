package redis

import (
	"auction-marketplace/internal/domain"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisTierCache struct {
	client *redis.Client
}

func NewRedisTierCache(client *redis.Client) *RedisTierCache {
	return &RedisTierCache{client: client}
}

func tierKey(userID string) string {
	return fmt.Sprintf("subscription:%s:tier", userID)
}

func (r *RedisTierCache) SetTier(ctx context.Context, userID string, tier domain.Tier, ttl time.Duration) error {
	return r.client.Set(ctx, tierKey(userID), string(tier), ttl).Err()
}

// GetTier reports false on a cache miss.
func (r *RedisTierCache) GetTier(ctx context.Context, userID string) (domain.Tier, bool, error) {
	result, err := r.client.Get(ctx, tierKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.TierFree, false, nil
		}
		return domain.TierFree, false, err
	}

	return domain.ParseTier(result), true, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
)

// SubscriptionService resolves seller tiers from the repository, with an
// optional cache in front. Tiers arrive from the identity provider's token
// claims and are recorded on each authenticated request.
type SubscriptionService struct {
	repo  repositories.SubscriptionRepository
	cache domain.TierCache
	ttl   time.Duration
	log   logger.Logger
}

// NewSubscriptionService accepts a nil cache.
func NewSubscriptionService(repo repositories.SubscriptionRepository, cache domain.TierCache, ttl time.Duration, log logger.Logger) *SubscriptionService {
	return &SubscriptionService{repo: repo, cache: cache, ttl: ttl, log: log}
}

// ResolveTier never fails. Lookup errors are logged and resolve to Free.
func (s *SubscriptionService) ResolveTier(ctx context.Context, userID string) domain.Tier {
	if s.cache != nil {
		tier, ok, err := s.cache.GetTier(ctx, userID)
		if err != nil {
			s.log.Warn("Tier cache lookup failed", "user_id", userID, "error", err)
		} else if ok {
			return tier
		}
	}

	tier, found, err := s.repo.GetTier(ctx, userID)
	if err != nil {
		s.log.Error("Failed to resolve subscription tier, using Free", "user_id", userID, "error", err)
		return domain.TierFree
	}
	if !found {
		tier = domain.TierFree
	}

	if s.cache != nil {
		if err := s.cache.SetTier(ctx, userID, tier, s.ttl); err != nil {
			s.log.Warn("Failed to cache tier", "user_id", userID, "error", err)
		}
	}
	return tier
}

// Record skips the repository write when the cache already holds the same tier.
func (s *SubscriptionService) Record(ctx context.Context, userID string, tier domain.Tier) error {
	if s.cache != nil {
		if cached, ok, err := s.cache.GetTier(ctx, userID); err == nil && ok && cached == tier {
			return nil
		}
	}
	if err := s.repo.SetTier(ctx, userID, tier); err != nil {
		return fmt.Errorf("recording tier: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetTier(ctx, userID, tier, s.ttl); err != nil {
			s.log.Warn("Failed to cache tier", "user_id", userID, "error", err)
		}
	}
	return nil
}

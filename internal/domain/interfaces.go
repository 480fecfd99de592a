package domain

import (
	"context"
	"time"
)

// SubscriptionResolver never fails: an unknown seller is Free.
type SubscriptionResolver interface {
	ResolveTier(ctx context.Context, userID string) Tier
}

// Cache interfaces
type TierCache interface {
	GetTier(ctx context.Context, userID string) (Tier, bool, error)
	SetTier(ctx context.Context, userID string, tier Tier, ttl time.Duration) error
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

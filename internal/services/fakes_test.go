package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
)

type fixedTier domain.Tier

func (f fixedTier) ResolveTier(ctx context.Context, userID string) domain.Tier {
	return domain.Tier(f)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.AuctionEvent
	err    error
}

func (p *recordingPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []domain.AuctionEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.AuctionEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type stubLeader struct {
	leader bool
	err    error
}

func (l *stubLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, l.err
}

func (l *stubLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, l.err
}

func (l *stubLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return nil
}

type memTierCache struct {
	tiers map[string]domain.Tier
	err   error
}

func (c *memTierCache) GetTier(ctx context.Context, userID string) (domain.Tier, bool, error) {
	if c.err != nil {
		return domain.TierFree, false, c.err
	}
	tier, ok := c.tiers[userID]
	return tier, ok, nil
}

func (c *memTierCache) SetTier(ctx context.Context, userID string, tier domain.Tier, ttl time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.tiers[userID] = tier
	return nil
}

type memSubscriptions struct {
	tiers  map[string]domain.Tier
	reads  int
	writes int
	err    error
}

func (r *memSubscriptions) GetTier(ctx context.Context, userID string) (domain.Tier, bool, error) {
	r.reads++
	if r.err != nil {
		return domain.TierFree, false, r.err
	}
	tier, ok := r.tiers[userID]
	return tier, ok, nil
}

func (r *memSubscriptions) SetTier(ctx context.Context, userID string, tier domain.Tier) error {
	r.writes++
	if r.err != nil {
		return r.err
	}
	r.tiers[userID] = tier
	return nil
}

var errBoom = errors.New("boom")

package services

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
)

const auditWriteTimeout = 5 * time.Second

// AuditListener persists every auction event it receives so the item's
// history can be replayed later.
type AuditListener struct {
	repo repositories.AuditRepository
	log  logger.Logger
}

func NewAuditListener(repo repositories.AuditRepository, log logger.Logger) *AuditListener {
	return &AuditListener{repo: repo, log: log}
}

// Start blocks until ctx is cancelled or the subscription fails.
func (l *AuditListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	l.log.Info("Audit listener subscribing to auction events")
	return subscriber.SubscribeToAuctionEvents(ctx, l.HandleEvent)
}

func (l *AuditListener) HandleEvent(event *domain.AuctionEvent) error {
	switch event.Type {
	case domain.ItemListed, domain.ItemCancelled, domain.BidAccepted, domain.ItemPaid:
	default:
		l.log.Warn("Ignoring unknown event type", "type", event.Type, "event_id", event.ID)
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := l.repo.SaveEvent(ctx, event); err != nil {
		l.log.Error("Failed to save auction event", "event_id", event.ID, "error", err)
		return err
	}

	l.log.Debug("Auction event recorded", "event_id", event.ID, "type", event.Type, "item_id", event.ItemID)
	return nil
}

func (l *AuditListener) History(ctx context.Context, itemID int64) ([]*domain.AuctionEvent, error) {
	return l.repo.ListByItem(ctx, itemID)
}

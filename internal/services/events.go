package services

import (
	"context"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	"github.com/shopspring/decimal"
)

// eventEmitter publishes after a successful commit. Publishing is best effort:
// the state change already happened, so a failure is logged and swallowed.
type eventEmitter struct {
	pub domain.EventPublisher
	log logger.Logger
}

func (e eventEmitter) emit(ctx context.Context, typ domain.AuctionEventType, itemID int64, userID string, amount decimal.Decimal) {
	if e.pub == nil {
		return
	}

	event := &domain.AuctionEvent{
		ID:        utils.GenerateID("evt"),
		Type:      typ,
		ItemID:    itemID,
		UserID:    userID,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
	if err := e.pub.PublishAuctionEvent(ctx, event); err != nil {
		e.log.Error("Failed to publish auction event", "type", typ, "item_id", itemID, "error", err)
	}
}

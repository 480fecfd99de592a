package services

import (
	"context"
	"errors"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"

	"github.com/shopspring/decimal"
)

type BidService struct {
	items  repositories.ItemStore
	events eventEmitter
	log    logger.Logger
}

func NewBidService(items repositories.ItemStore, eventPub domain.EventPublisher, log logger.Logger) *BidService {
	return &BidService{
		items:  items,
		events: eventEmitter{pub: eventPub, log: log},
		log:    log,
	}
}

// PlaceBid pre-checks the bid against the item as read, then lets the store
// re-check and insert atomically. The store has the final word.
func (s *BidService) PlaceBid(ctx context.Context, itemID int64, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	s.log.Debug("Placing bid", "item_id", itemID, "bidder_id", bidderID, "amount", amount)

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, domain.NewNotFoundError(domain.MsgItemNotFound)
	}
	if item.SellerID == bidderID {
		return nil, domain.NewValidationError(domain.MsgOwnItemBid)
	}

	if !domain.ExceedsIncrement(domain.CurrentHighest(item), amount) {
		return nil, domain.NewValidationError(domain.MsgBidTooLow)
	}

	bid, err := s.items.PlaceBid(ctx, itemID, bidderID, domain.RoundUpToHalf(amount))
	switch {
	case errors.Is(err, domain.ErrBidTooLow):
		s.log.Debug("Bid outpaced by concurrent bid", "item_id", itemID, "bidder_id", bidderID)
		return nil, domain.NewValidationError(domain.MsgBidTooLow)
	case errors.Is(err, domain.ErrBidRejected):
		s.log.Debug("Bid rejected by store", "item_id", itemID, "bidder_id", bidderID)
		return nil, domain.NewValidationError(domain.MsgBidRejected)
	case err != nil:
		s.log.Error("Failed to store bid", "item_id", itemID, "error", err)
		return nil, fmt.Errorf("placing bid on item %d: %w", itemID, err)
	}

	s.log.Info("Bid accepted", "item_id", itemID, "bidder_id", bidderID, "amount", bid.Amount)
	s.events.emit(ctx, domain.BidAccepted, itemID, bidderID, bid.Amount)
	return bid, nil
}

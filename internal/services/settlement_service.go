package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
)

type SettlementService struct {
	items  repositories.ItemStore
	events eventEmitter
	log    logger.Logger
}

func NewSettlementService(items repositories.ItemStore, eventPub domain.EventPublisher, log logger.Logger) *SettlementService {
	return &SettlementService{
		items:  items,
		events: eventEmitter{pub: eventPub, log: log},
		log:    log,
	}
}

// AuthorizePayment marks the item Paid when payerID holds the highest bid.
// It returns false when a concurrent payment or cancellation won the race.
func (s *SettlementService) AuthorizePayment(ctx context.Context, itemID int64, payerID string) (bool, error) {
	item, err := s.items.GetHighestBidItem(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("loading item %d: %w", itemID, err)
	}
	if item == nil || item.Status != domain.StatusInitial {
		return false, domain.NewValidationError(domain.MsgPaymentNotPossible)
	}

	highest := item.HighestBid()
	if highest == nil || highest.BidderID != payerID {
		return false, domain.NewValidationError(domain.MsgNotHighestBidder)
	}

	ok, err := s.items.MarkPaid(ctx, itemID, payerID)
	if err != nil {
		s.log.Error("Failed to mark item paid", "item_id", itemID, "error", err)
		return false, fmt.Errorf("marking item %d paid: %w", itemID, err)
	}
	if !ok {
		s.log.Info("Payment refused", "item_id", itemID, "payer_id", payerID)
		return false, nil
	}

	s.log.Info("Payment authorized", "item_id", itemID, "payer_id", payerID, "amount", highest.Amount)
	s.events.emit(ctx, domain.ItemPaid, itemID, payerID, highest.Amount)
	return true, nil
}

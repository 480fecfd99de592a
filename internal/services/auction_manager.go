package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
)

// AuctionManager owns the listing lifecycle: creation, cancellation and the read side.
type AuctionManager struct {
	items    repositories.ItemStore
	resolver domain.SubscriptionResolver
	events   eventEmitter
	log      logger.Logger
	now      func() time.Time
}

func NewAuctionManager(
	items repositories.ItemStore,
	resolver domain.SubscriptionResolver,
	eventPub domain.EventPublisher,
	log logger.Logger,
) *AuctionManager {
	return &AuctionManager{
		items:    items,
		resolver: resolver,
		events:   eventEmitter{pub: eventPub, log: log},
		log:      log,
		now:      time.Now,
	}
}

func (am *AuctionManager) CreateListing(ctx context.Context, in domain.Listing, sellerID string) (*domain.AuctionItem, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError(domain.MsgNameRequired)
	}
	if in.StartingPrice.IsNegative() {
		return nil, domain.NewValidationError(domain.MsgNegativePrice)
	}
	// Amounts are stored as DECIMAL(18,2).
	if !in.StartingPrice.Equal(in.StartingPrice.Truncate(2)) {
		return nil, domain.NewValidationError(domain.MsgPricePrecision)
	}
	if in.StartTime.Before(am.now().Add(-domain.StartGraceWindow)) {
		return nil, domain.NewValidationError(domain.MsgStartInPast)
	}

	tier := am.resolver.ResolveTier(ctx, sellerID)

	var endTime time.Time
	if tier.Premium() {
		minEnd := in.StartTime.Add(domain.PremiumMinimumDuration)
		if in.EndTime != nil && in.EndTime.Before(minEnd) {
			return nil, domain.NewValidationError(domain.MsgEndTooSoon)
		}
		endTime = minEnd
		if in.EndTime != nil {
			endTime = *in.EndTime
		}
	} else {
		// Free listings always run three days; a requested end time is ignored.
		endTime = in.StartTime.Add(domain.FreeListingDuration)
	}

	item := &domain.AuctionItem{
		Name:          in.Name,
		Description:   in.Description,
		StartingPrice: in.StartingPrice,
		StartTime:     in.StartTime,
		EndTime:       endTime,
		Status:        domain.StatusInitial,
		CategoryID:    in.CategoryID,
		SellerID:      sellerID,
	}

	created, err := am.items.Add(ctx, item)
	if err != nil {
		am.log.Error("Failed to store listing", "seller_id", sellerID, "error", err)
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	am.log.Info("Listing created", "item_id", created.ID, "seller_id", sellerID, "tier", tier, "end_time", created.EndTime)
	am.events.emit(ctx, domain.ItemListed, created.ID, sellerID, created.StartingPrice)
	return created, nil
}

// CancelListing returns false when the store refuses the cancellation,
// for example because the auction ended in the meantime.
func (am *AuctionManager) CancelListing(ctx context.Context, itemID int64, requesterID string) (bool, error) {
	item, err := am.items.GetByID(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("loading item %d: %w", itemID, err)
	}
	if item == nil {
		return false, domain.NewNotFoundError(domain.MsgItemNotFound)
	}
	if item.SellerID != requesterID {
		return false, domain.NewAuthorizationError(domain.MsgOnlySellerCancels)
	}

	ok, err := am.items.Cancel(ctx, itemID, requesterID)
	if err != nil {
		am.log.Error("Failed to cancel listing", "item_id", itemID, "error", err)
		return false, fmt.Errorf("cancelling item %d: %w", itemID, err)
	}
	if !ok {
		am.log.Info("Cancellation refused", "item_id", itemID, "requester_id", requesterID)
		return false, nil
	}

	am.log.Info("Listing cancelled", "item_id", itemID)
	am.events.emit(ctx, domain.ItemCancelled, itemID, requesterID, item.StartingPrice)
	return true, nil
}

func (am *AuctionManager) GetSoldItems(ctx context.Context, sellerID string) ([]*domain.AuctionItem, error) {
	return am.items.GetSoldByUser(ctx, sellerID)
}

func (am *AuctionManager) GetPurchasedItems(ctx context.Context, buyerID string) ([]*domain.AuctionItem, error) {
	return am.items.GetPurchasedByUser(ctx, buyerID)
}

func (am *AuctionManager) GetBidsForItem(ctx context.Context, itemID int64) ([]*domain.Bid, error) {
	item, err := am.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, domain.NewNotFoundError(domain.MsgItemHasNoBids)
	}
	return am.items.GetBidsByItem(ctx, itemID)
}

// GetByID returns nil, nil for an unknown item.
func (am *AuctionManager) GetByID(ctx context.Context, itemID int64) (*domain.AuctionItem, error) {
	return am.items.GetByID(ctx, itemID)
}

func (am *AuctionManager) SearchItems(ctx context.Context, filter domain.SearchFilter) ([]*domain.AuctionItem, error) {
	return am.items.Search(ctx, filter)
}

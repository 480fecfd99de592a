package repositories

import (
	"auction-marketplace/internal/domain"
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ItemStore persists auction items and their bids. Cancel, PlaceBid and
// MarkPaid re-validate their preconditions and write in one atomic step, so
// concurrent calls against the same item are linearized by the store.
type ItemStore interface {
	Add(ctx context.Context, item *domain.AuctionItem) (*domain.AuctionItem, error)
	// GetByID returns nil, nil when the item does not exist. Bids are ordered by placement time.
	GetByID(ctx context.Context, itemID int64) (*domain.AuctionItem, error)
	// Cancel returns false when the item is missing, not owned by requesterID or already ended.
	Cancel(ctx context.Context, itemID int64, requesterID string) (bool, error)
	// PlaceBid fails with domain.ErrBidRejected or domain.ErrBidTooLow when the re-check fails.
	PlaceBid(ctx context.Context, itemID int64, bidderID string, amount decimal.Decimal) (*domain.Bid, error)
	// GetHighestBidItem returns the item with its bids ordered highest first.
	GetHighestBidItem(ctx context.Context, itemID int64) (*domain.AuctionItem, error)
	// MarkPaid returns false when the item is missing, not open for payment or payerID is not the highest bidder.
	MarkPaid(ctx context.Context, itemID int64, payerID string) (bool, error)
	GetSoldByUser(ctx context.Context, sellerID string) ([]*domain.AuctionItem, error)
	GetPurchasedByUser(ctx context.Context, buyerID string) ([]*domain.AuctionItem, error)
	GetBidsByItem(ctx context.Context, itemID int64) ([]*domain.Bid, error)
	Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.AuctionItem, error)
	// GetAwaitingSettlement lists Initial items that ended before the given time and have bids.
	GetAwaitingSettlement(ctx context.Context, before time.Time) ([]*domain.AuctionItem, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, itemID int64, userID string) (*domain.Favorite, error)
	// Remove deletes only favorites owned by userID.
	Remove(ctx context.Context, favoriteID int64, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Favorite, error)
}

type SubscriptionRepository interface {
	// GetTier returns false when no tier is recorded for the user.
	GetTier(ctx context.Context, userID string) (domain.Tier, bool, error)
	SetTier(ctx context.Context, userID string, tier domain.Tier) error
}

type AuditRepository interface {
	SaveEvent(ctx context.Context, event *domain.AuctionEvent) error
	ListByItem(ctx context.Context, itemID int64) ([]*domain.AuctionEvent, error)
}

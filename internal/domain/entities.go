package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AuctionItem struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"startingPrice"`
	StartTime     time.Time       `json:"startDateTime"`
	EndTime       time.Time       `json:"endDateTime"`
	Status        AuctionStatus   `json:"status"`
	CategoryID    int64           `json:"categoryId"`
	SellerID      string          `json:"sellerId"`
	Bids          []*Bid          `json:"bids,omitempty"`
}

// HighestBid returns the bid with the largest amount. On equal amounts the
// earliest placed bid wins. Nil when the item has no bids.
func (a *AuctionItem) HighestBid() *Bid {
	var highest *Bid
	for _, b := range a.Bids {
		if highest == nil || b.Amount.GreaterThan(highest.Amount) {
			highest = b
		}
	}
	return highest
}

type AuctionStatus int

const (
	StatusInitial AuctionStatus = iota
	StatusCancelled
	StatusPaid
)

func (s AuctionStatus) String() string {
	switch s {
	case StatusInitial:
		return "Initial"
	case StatusCancelled:
		return "Cancelled"
	case StatusPaid:
		return "Paid"
	default:
		return "Unknown"
	}
}

func ParseAuctionStatus(s string) (AuctionStatus, error) {
	switch s {
	case "Initial":
		return StatusInitial, nil
	case "Cancelled":
		return StatusCancelled, nil
	case "Paid":
		return StatusPaid, nil
	}
	return StatusInitial, fmt.Errorf("unknown auction status %q", s)
}

func (s AuctionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *AuctionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseAuctionStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Bid struct {
	ID       int64           `json:"id"`
	ItemID   int64           `json:"auctionItemId"`
	BidderID string          `json:"bidderId"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt time.Time       `json:"bidDateTime"`
}

// Tier is the seller's subscription level. It decides how long a listing runs.
type Tier string

const (
	TierFree     Tier = "Free"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// ParseTier maps anything unrecognised, including the empty string, to Free.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierGold:
		return TierGold
	case TierPlatinum:
		return TierPlatinum
	default:
		return TierFree
	}
}

func (t Tier) Premium() bool {
	return t == TierGold || t == TierPlatinum
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Favorite struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"auctionItemId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Listing is the input for creating an auction item.
type Listing struct {
	Name          string
	Description   string
	StartingPrice decimal.Decimal
	StartTime     time.Time
	EndTime       *time.Time
	CategoryID    int64
}

type SearchFilter struct {
	CategoryIDs []int64
	// MaxPrice keeps items that have at least one bid at or under the price.
	MaxPrice *decimal.Decimal
}

type AuctionEvent struct {
	ID        string           `json:"id"`
	Type      AuctionEventType `json:"type"`
	ItemID    int64            `json:"item_id"`
	UserID    string           `json:"user_id"`
	Amount    decimal.Decimal  `json:"amount"`
	Timestamp time.Time        `json:"timestamp"`
}

type AuctionEventType string

const (
	ItemListed    AuctionEventType = "item_listed"
	ItemCancelled AuctionEventType = "item_cancelled"
	BidAccepted   AuctionEventType = "bid_accepted"
	ItemPaid      AuctionEventType = "item_paid"
)

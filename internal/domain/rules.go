package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// StartGraceWindow is how far in the past a listing's start time may lie.
	StartGraceWindow       = 180 * time.Second
	FreeListingDuration    = 3 * 24 * time.Hour
	PremiumMinimumDuration = 12 * time.Hour
)

var (
	incrementFactor = decimal.RequireFromString("1.05")
	two             = decimal.NewFromInt(2)
)

// CurrentHighest is the largest bid amount, or the starting price when nobody has bid yet.
func CurrentHighest(item *AuctionItem) decimal.Decimal {
	if b := item.HighestBid(); b != nil {
		return b.Amount
	}
	return item.StartingPrice
}

// ExceedsIncrement reports whether amount is strictly above highest * 1.05.
func ExceedsIncrement(highest, amount decimal.Decimal) bool {
	return amount.GreaterThan(highest.Mul(incrementFactor))
}

// RoundUpToHalf rounds up to the next 0.50.
func RoundUpToHalf(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(two).Ceil().Div(two)
}

// Open reports whether bids are admissible at now.
func (a *AuctionItem) Open(now time.Time) bool {
	return a.Status == StatusInitial && !now.Before(a.StartTime) && !now.After(a.EndTime)
}

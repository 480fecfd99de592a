package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

func TestPlaceBid(t *testing.T) {
	h := newHarness(t, domain.TierFree)
	ctx := context.Background()
	item := h.list(t, "seller", 100)

	_, err := h.bids.PlaceBid(ctx, 999, "alice", decimal.NewFromInt(200))
	expectMessage(t, err, domain.IsNotFound, domain.MsgItemNotFound)

	_, err = h.bids.PlaceBid(ctx, item.ID, "seller", decimal.NewFromInt(200))
	expectMessage(t, err, domain.IsValidation, domain.MsgOwnItemBid)

	_, err = h.bids.PlaceBid(ctx, item.ID, "alice", decimal.NewFromInt(105))
	expectMessage(t, err, domain.IsValidation, domain.MsgBidTooLow)

	bid, err := h.bids.PlaceBid(ctx, item.ID, "alice", decimal.RequireFromString("105.01"))
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if !bid.Amount.Equal(decimal.RequireFromString("105.5")) {
		t.Errorf("expected amount rounded to 105.50, got %s", bid.Amount)
	}
	if !bid.PlacedAt.Equal(baseTime) {
		t.Errorf("expected bid time %v, got %v", baseTime, bid.PlacedAt)
	}

	// 105.50 * 1.05 = 110.775
	_, err = h.bids.PlaceBid(ctx, item.ID, "bob", decimal.RequireFromString("110.775"))
	expectMessage(t, err, domain.IsValidation, domain.MsgBidTooLow)

	bid, err = h.bids.PlaceBid(ctx, item.ID, "bob", decimal.NewFromInt(111))
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if !bid.Amount.Equal(decimal.NewFromInt(111)) {
		t.Errorf("expected 111, got %s", bid.Amount)
	}

	types := h.events.types()
	if types[len(types)-1] != domain.BidAccepted {
		t.Errorf("expected bid_accepted last, got %v", types)
	}
}

func TestPlaceBidRejectedByStore(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled item", func(t *testing.T) {
		h := newHarness(t, domain.TierFree)
		item := h.list(t, "seller", 10)
		if _, err := h.auctions.CancelListing(ctx, item.ID, "seller"); err != nil {
			t.Fatalf("CancelListing: %v", err)
		}
		_, err := h.bids.PlaceBid(ctx, item.ID, "alice", decimal.NewFromInt(50))
		expectMessage(t, err, domain.IsValidation, domain.MsgBidRejected)
	})

	t.Run("auction ended", func(t *testing.T) {
		h := newHarness(t, domain.TierFree)
		item := h.list(t, "seller", 10)
		h.clock = item.EndTime.Add(time.Second)
		_, err := h.bids.PlaceBid(ctx, item.ID, "alice", decimal.NewFromInt(50))
		expectMessage(t, err, domain.IsValidation, domain.MsgBidRejected)
	})

	t.Run("auction not started", func(t *testing.T) {
		h := newHarness(t, domain.TierFree)
		item, err := h.auctions.CreateListing(ctx, domain.Listing{
			Name:          "Boek",
			StartingPrice: decimal.NewFromInt(10),
			StartTime:     baseTime.Add(time.Hour),
		}, "seller")
		if err != nil {
			t.Fatalf("CreateListing: %v", err)
		}
		_, err = h.bids.PlaceBid(ctx, item.ID, "alice", decimal.NewFromInt(50))
		expectMessage(t, err, domain.IsValidation, domain.MsgBidRejected)
	})
}

func TestConcurrentEqualBidsAcceptOne(t *testing.T) {
	h := newHarness(t, domain.TierFree)
	item := h.list(t, "seller", 100)

	const bidders = 8
	var wg sync.WaitGroup
	results := make(chan error, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := h.bids.PlaceBid(context.Background(), item.ID, string(rune('a'+n)), decimal.NewFromInt(110))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		if !domain.IsValidation(err) || err.Error() != domain.MsgBidTooLow {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Errorf("expected exactly one accepted bid, got %d", accepted)
	}
}

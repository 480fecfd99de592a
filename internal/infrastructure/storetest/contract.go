// Package storetest checks that an ItemStore implementation honours the
// store contract: atomic re-validation on cancel, bid and payment.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"

	"github.com/shopspring/decimal"
)

// ClockedStore is an ItemStore whose notion of "now" can be pinned.
type ClockedStore interface {
	repositories.ItemStore
	SetClock(now func() time.Time)
}

// Base is the pinned "now" used by every contract test.
var Base = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addItem(t *testing.T, s ClockedStore, seller string, price string, category int64, start, end time.Time) *domain.AuctionItem {
	t.Helper()
	item, err := s.Add(context.Background(), &domain.AuctionItem{
		Name:          "Rolex Submariner",
		Description:   "Date, 2019",
		StartingPrice: dec(price),
		StartTime:     start,
		EndTime:       end,
		Status:        domain.StatusInitial,
		CategoryID:    category,
		SellerID:      seller,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return item
}

func placeBid(t *testing.T, s ClockedStore, itemID int64, bidder, amount string) *domain.Bid {
	t.Helper()
	bid, err := s.PlaceBid(context.Background(), itemID, bidder, dec(amount))
	if err != nil {
		t.Fatalf("PlaceBid(%s, %s): %v", bidder, amount, err)
	}
	return bid
}

// Run executes the whole contract against stores produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) ClockedStore) {
	setup := func(t *testing.T) ClockedStore {
		s := newStore(t)
		s.SetClock(func() time.Time { return Base })
		return s
	}

	t.Run("AddAndGet", func(t *testing.T) { testAddAndGet(t, setup(t)) })
	t.Run("PlaceBidIncrementAndRounding", func(t *testing.T) { testPlaceBidIncrement(t, setup(t)) })
	t.Run("PlaceBidRejections", func(t *testing.T) { testPlaceBidRejections(t, setup(t)) })
	t.Run("Cancel", func(t *testing.T) { testCancel(t, setup(t)) })
	t.Run("MarkPaid", func(t *testing.T) { testMarkPaid(t, setup(t)) })
	t.Run("SoldAndPurchased", func(t *testing.T) { testSoldAndPurchased(t, setup(t)) })
	t.Run("Search", func(t *testing.T) { testSearch(t, setup(t)) })
	t.Run("HighestBidItem", func(t *testing.T) { testHighestBidItem(t, setup(t)) })
	t.Run("AwaitingSettlement", func(t *testing.T) { testAwaitingSettlement(t, setup(t)) })
	t.Run("ConcurrentBids", func(t *testing.T) { testConcurrentBids(t, setup(t)) })
	t.Run("ConcurrentPayments", func(t *testing.T) { testConcurrentPayments(t, setup(t)) })
}

func testAddAndGet(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	start := Base
	end := Base.Add(72 * time.Hour)
	item := addItem(t, s, "seller", "225000", 4, start, end)

	if item.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := s.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected item, got nil")
	}
	if got.Name != "Rolex Submariner" || got.Description != "Date, 2019" {
		t.Errorf("unexpected name/description %q/%q", got.Name, got.Description)
	}
	if !got.StartingPrice.Equal(dec("225000")) {
		t.Errorf("expected starting price 225000, got %s", got.StartingPrice)
	}
	if !got.StartTime.Equal(start) || !got.EndTime.Equal(end) {
		t.Errorf("expected %v-%v, got %v-%v", start, end, got.StartTime, got.EndTime)
	}
	if got.Status != domain.StatusInitial {
		t.Errorf("expected Initial, got %v", got.Status)
	}
	if got.CategoryID != 4 || got.SellerID != "seller" {
		t.Errorf("unexpected category/seller %d/%q", got.CategoryID, got.SellerID)
	}
	if len(got.Bids) != 0 {
		t.Errorf("expected no bids, got %d", len(got.Bids))
	}

	second := addItem(t, s, "seller", "10", 1, start, end)
	if second.ID == item.ID {
		t.Errorf("expected distinct ids, both %d", item.ID)
	}

	missing, err := s.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing item, got %+v", missing)
	}
}

func testPlaceBidIncrement(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	item := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))

	for _, amount := range []string{"104", "105"} {
		_, err := s.PlaceBid(ctx, item.ID, "alice", dec(amount))
		if !errors.Is(err, domain.ErrBidTooLow) {
			t.Errorf("bid %s: expected ErrBidTooLow, got %v", amount, err)
		}
	}

	bid := placeBid(t, s, item.ID, "alice", "105.3")
	if !bid.Amount.Equal(dec("105.5")) {
		t.Errorf("expected rounded amount 105.5, got %s", bid.Amount)
	}
	if bid.ID == 0 || bid.ItemID != item.ID || bid.BidderID != "alice" {
		t.Errorf("unexpected bid %+v", bid)
	}
	if !bid.PlacedAt.Equal(Base) {
		t.Errorf("expected bid time %v, got %v", Base, bid.PlacedAt)
	}

	// 105.5 * 1.05 = 110.775
	if _, err := s.PlaceBid(ctx, item.ID, "bob", dec("110.5")); !errors.Is(err, domain.ErrBidTooLow) {
		t.Errorf("expected ErrBidTooLow for 110.5, got %v", err)
	}
	second := placeBid(t, s, item.ID, "bob", "111")
	if !second.Amount.Equal(dec("111")) {
		t.Errorf("expected 111, got %s", second.Amount)
	}

	bids, err := s.GetBidsByItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetBidsByItem: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(bids))
	}
	if bids[0].BidderID != "alice" || bids[1].BidderID != "bob" {
		t.Errorf("expected placement order alice, bob; got %s, %s", bids[0].BidderID, bids[1].BidderID)
	}
}

func testPlaceBidRejections(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	open := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	ended := addItem(t, s, "seller", "100", 1, Base.Add(-2*time.Hour), Base.Add(-time.Second))
	future := addItem(t, s, "seller", "100", 1, Base.Add(time.Hour), Base.Add(2*time.Hour))
	cancelled := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	if ok, err := s.Cancel(ctx, cancelled.ID, "seller"); err != nil || !ok {
		t.Fatalf("Cancel: %v %v", ok, err)
	}

	tests := []struct {
		name   string
		itemID int64
		bidder string
	}{
		{"own item", open.ID, "seller"},
		{"missing item", 9999, "alice"},
		{"ended", ended.ID, "alice"},
		{"not started", future.ID, "alice"},
		{"cancelled", cancelled.ID, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.PlaceBid(ctx, tt.itemID, tt.bidder, dec("1000"))
			if !errors.Is(err, domain.ErrBidRejected) {
				t.Errorf("expected ErrBidRejected, got %v", err)
			}
		})
	}

	// Exactly at the end time is still open.
	atEnd := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base)
	placeBid(t, s, atEnd.ID, "alice", "200")
}

func testCancel(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	item := addItem(t, s, "seller", "50", 2, Base, Base.Add(time.Hour))
	ended := addItem(t, s, "seller", "50", 2, Base.Add(-2*time.Hour), Base.Add(-time.Minute))

	if ok, err := s.Cancel(ctx, item.ID, "intruder"); err != nil || ok {
		t.Errorf("expected false for non-seller, got %v %v", ok, err)
	}
	if ok, err := s.Cancel(ctx, ended.ID, "seller"); err != nil || ok {
		t.Errorf("expected false for ended item, got %v %v", ok, err)
	}
	if ok, err := s.Cancel(ctx, 9999, "seller"); err != nil || ok {
		t.Errorf("expected false for missing item, got %v %v", ok, err)
	}

	ok, err := s.Cancel(ctx, item.ID, "seller")
	if err != nil || !ok {
		t.Fatalf("expected cancel to succeed, got %v %v", ok, err)
	}
	got, _ := s.GetByID(ctx, item.ID)
	if got.Status != domain.StatusCancelled {
		t.Errorf("expected Cancelled, got %v", got.Status)
	}

	if ok, _ := s.Cancel(ctx, item.ID, "seller"); ok {
		t.Error("expected second cancel to fail")
	}
}

func testMarkPaid(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	item := addItem(t, s, "seller", "100", 3, Base.Add(-time.Hour), Base.Add(time.Hour))

	if ok, err := s.MarkPaid(ctx, item.ID, "alice"); err != nil || ok {
		t.Errorf("expected false without bids, got %v %v", ok, err)
	}

	placeBid(t, s, item.ID, "alice", "110")
	placeBid(t, s, item.ID, "bob", "120")

	if ok, err := s.MarkPaid(ctx, item.ID, "alice"); err != nil || ok {
		t.Errorf("expected false for outbid payer, got %v %v", ok, err)
	}
	if ok, err := s.MarkPaid(ctx, 9999, "bob"); err != nil || ok {
		t.Errorf("expected false for missing item, got %v %v", ok, err)
	}

	ok, err := s.MarkPaid(ctx, item.ID, "bob")
	if err != nil || !ok {
		t.Fatalf("expected payment to succeed, got %v %v", ok, err)
	}
	got, _ := s.GetByID(ctx, item.ID)
	if got.Status != domain.StatusPaid {
		t.Errorf("expected Paid, got %v", got.Status)
	}

	if ok, _ := s.MarkPaid(ctx, item.ID, "bob"); ok {
		t.Error("expected second payment to fail")
	}
	if ok, _ := s.Cancel(ctx, item.ID, "seller"); ok {
		t.Error("expected cancel of paid item to fail")
	}

	cancelled := addItem(t, s, "seller", "100", 3, Base.Add(-time.Hour), Base.Add(time.Hour))
	placeBid(t, s, cancelled.ID, "carol", "200")
	if ok, _ := s.Cancel(ctx, cancelled.ID, "seller"); !ok {
		t.Fatal("expected cancel to succeed")
	}
	if ok, _ := s.MarkPaid(ctx, cancelled.ID, "carol"); ok {
		t.Error("expected payment of cancelled item to fail")
	}
}

func testSoldAndPurchased(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	sold := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	open := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	other := addItem(t, s, "someone-else", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))

	placeBid(t, s, sold.ID, "alice", "110")
	placeBid(t, s, open.ID, "alice", "110")
	placeBid(t, s, other.ID, "bob", "110")

	for _, id := range []int64{sold.ID, other.ID} {
		hb, _ := s.GetHighestBidItem(ctx, id)
		if ok, err := s.MarkPaid(ctx, id, hb.HighestBid().BidderID); err != nil || !ok {
			t.Fatalf("MarkPaid(%d): %v %v", id, ok, err)
		}
	}

	items, err := s.GetSoldByUser(ctx, "seller")
	if err != nil {
		t.Fatalf("GetSoldByUser: %v", err)
	}
	if len(items) != 1 || items[0].ID != sold.ID {
		t.Errorf("expected only item %d sold, got %v", sold.ID, ids(items))
	}

	purchased, err := s.GetPurchasedByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPurchasedByUser: %v", err)
	}
	if len(purchased) != 1 || purchased[0].ID != sold.ID {
		t.Errorf("expected alice to have purchased %d, got %v", sold.ID, ids(purchased))
	}

	none, err := s.GetSoldByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetSoldByUser: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no items, got %d", len(none))
	}
}

func testSearch(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	late := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(3*time.Hour))
	soon := addItem(t, s, "seller", "100", 2, Base.Add(-time.Hour), Base.Add(time.Hour))
	mid := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(2*time.Hour))
	addItem(t, s, "seller", "100", 1, Base.Add(-2*time.Hour), Base.Add(-time.Second))
	cancelled := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	if ok, _ := s.Cancel(ctx, cancelled.ID, "seller"); !ok {
		t.Fatal("cancel failed")
	}

	placeBid(t, s, late.ID, "alice", "110")
	placeBid(t, s, mid.ID, "alice", "300")

	all, err := s.Search(ctx, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertIDs(t, "no filter", all, soon.ID, mid.ID, late.ID)

	byCategory, err := s.Search(ctx, domain.SearchFilter{CategoryIDs: []int64{1}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertIDs(t, "category 1", byCategory, mid.ID, late.ID)

	maxPrice := dec("200")
	byPrice, err := s.Search(ctx, domain.SearchFilter{MaxPrice: &maxPrice})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertIDs(t, "max price 200", byPrice, late.ID)

	exact := dec("110")
	atPrice, err := s.Search(ctx, domain.SearchFilter{MaxPrice: &exact, CategoryIDs: []int64{1, 2}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertIDs(t, "max price 110", atPrice, late.ID)
}

func testHighestBidItem(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	item := addItem(t, s, "seller", "10", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	placeBid(t, s, item.ID, "alice", "20")
	placeBid(t, s, item.ID, "bob", "30")
	placeBid(t, s, item.ID, "carol", "40")

	got, err := s.GetHighestBidItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetHighestBidItem: %v", err)
	}
	if len(got.Bids) != 3 {
		t.Fatalf("expected 3 bids, got %d", len(got.Bids))
	}
	if got.Bids[0].BidderID != "carol" || !got.Bids[0].Amount.Equal(dec("40")) {
		t.Errorf("expected carol's 40 first, got %s %s", got.Bids[0].BidderID, got.Bids[0].Amount)
	}

	missing, err := s.GetHighestBidItem(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing item, got %v %v", missing, err)
	}
}

func testAwaitingSettlement(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	withBids := addItem(t, s, "seller", "10", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	addItem(t, s, "seller", "10", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	paid := addItem(t, s, "seller", "10", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	placeBid(t, s, withBids.ID, "alice", "20")
	placeBid(t, s, withBids.ID, "bob", "30")
	placeBid(t, s, paid.ID, "carol", "20")
	if ok, _ := s.MarkPaid(ctx, paid.ID, "carol"); !ok {
		t.Fatal("MarkPaid failed")
	}

	items, err := s.GetAwaitingSettlement(ctx, Base)
	if err != nil {
		t.Fatalf("GetAwaitingSettlement: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected nothing before end, got %v", ids(items))
	}

	items, err = s.GetAwaitingSettlement(ctx, Base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("GetAwaitingSettlement: %v", err)
	}
	assertIDs(t, "after end", items, withBids.ID)
	if hb := items[0].HighestBid(); hb == nil || hb.BidderID != "bob" {
		t.Errorf("expected bob as highest bidder, got %+v", hb)
	}
}

func testConcurrentBids(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	item := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))

	const bidders = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, tooLow := 0, 0

	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.PlaceBid(ctx, item.ID, "bidder-"+string(rune('a'+n)), dec("106"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, domain.ErrBidTooLow):
				tooLow++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if accepted != 1 || tooLow != bidders-1 {
		t.Errorf("expected 1 accepted and %d too low, got %d and %d", bidders-1, accepted, tooLow)
	}

	bids, err := s.GetBidsByItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetBidsByItem: %v", err)
	}
	if len(bids) != 1 {
		t.Errorf("expected 1 stored bid, got %d", len(bids))
	}
}

func testConcurrentPayments(t *testing.T, s ClockedStore) {
	ctx := context.Background()
	item := addItem(t, s, "seller", "100", 1, Base.Add(-time.Hour), Base.Add(time.Hour))
	placeBid(t, s, item.ID, "alice", "200")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.MarkPaid(ctx, item.ID, "alice")
			if err != nil {
				t.Errorf("MarkPaid: %v", err)
				return
			}
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("expected exactly one successful payment, got %d", succeeded)
	}
}

func ids(items []*domain.AuctionItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func assertIDs(t *testing.T, label string, items []*domain.AuctionItem, want ...int64) {
	t.Helper()
	got := ids(items)
	if len(got) != len(want) {
		t.Errorf("%s: expected %v, got %v", label, want, got)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: expected %v, got %v", label, want, got)
			return
		}
	}
}

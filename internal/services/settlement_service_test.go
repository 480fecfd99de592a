package services

import (
	"context"
	"testing"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

func TestAuthorizePayment(t *testing.T) {
	h := newHarness(t, domain.TierFree)
	ctx := context.Background()

	_, err := h.payments.AuthorizePayment(ctx, 999, "alice")
	expectMessage(t, err, domain.IsValidation, domain.MsgPaymentNotPossible)

	item := h.list(t, "seller", 10)

	_, err = h.payments.AuthorizePayment(ctx, item.ID, "alice")
	expectMessage(t, err, domain.IsValidation, domain.MsgNotHighestBidder)

	if _, err := h.bids.PlaceBid(ctx, item.ID, "alice", decimal.NewFromInt(20)); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if _, err := h.bids.PlaceBid(ctx, item.ID, "bob", decimal.NewFromInt(30)); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	_, err = h.payments.AuthorizePayment(ctx, item.ID, "alice")
	expectMessage(t, err, domain.IsValidation, domain.MsgNotHighestBidder)

	ok, err := h.payments.AuthorizePayment(ctx, item.ID, "bob")
	if err != nil || !ok {
		t.Fatalf("expected payment to succeed, got %v %v", ok, err)
	}

	_, err = h.payments.AuthorizePayment(ctx, item.ID, "bob")
	expectMessage(t, err, domain.IsValidation, domain.MsgPaymentNotPossible)

	sold, _ := h.auctions.GetSoldItems(ctx, "seller")
	if len(sold) != 1 || sold[0].ID != item.ID {
		t.Errorf("expected item in seller's sold list, got %+v", sold)
	}
	bought, _ := h.auctions.GetPurchasedItems(ctx, "bob")
	if len(bought) != 1 || bought[0].ID != item.ID {
		t.Errorf("expected item in buyer's purchased list, got %+v", bought)
	}
	if other, _ := h.auctions.GetPurchasedItems(ctx, "alice"); len(other) != 0 {
		t.Errorf("outbid user should not see the item as purchased")
	}

	types := h.events.types()
	if types[len(types)-1] != domain.ItemPaid {
		t.Errorf("expected item_paid last, got %v", types)
	}
}

func TestPaymentOnCancelledItem(t *testing.T) {
	h := newHarness(t, domain.TierFree)
	ctx := context.Background()
	item := h.list(t, "seller", 10)

	if _, err := h.bids.PlaceBid(ctx, item.ID, "alice", decimal.NewFromInt(20)); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if _, err := h.auctions.CancelListing(ctx, item.ID, "seller"); err != nil {
		t.Fatalf("CancelListing: %v", err)
	}

	_, err := h.payments.AuthorizePayment(ctx, item.ID, "alice")
	expectMessage(t, err, domain.IsValidation, domain.MsgPaymentNotPossible)
}

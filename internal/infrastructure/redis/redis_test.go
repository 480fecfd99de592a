package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestTierCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	cache := NewRedisTierCache(client)

	if _, ok, err := cache.GetTier(ctx, "alice"); err != nil || ok {
		t.Fatalf("expected miss, got %v %v", ok, err)
	}

	if err := cache.SetTier(ctx, "alice", domain.TierGold, time.Minute); err != nil {
		t.Fatalf("SetTier: %v", err)
	}
	tier, ok, err := cache.GetTier(ctx, "alice")
	if err != nil || !ok || tier != domain.TierGold {
		t.Fatalf("expected Gold hit, got %v %v %v", tier, ok, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := cache.GetTier(ctx, "alice"); ok {
		t.Error("expected entry to expire")
	}
}

func TestPublishSubscribe(t *testing.T) {
	_, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewEventPublisher(client, "")
	subscriber := NewRedisEventSubscriber(client, "", logger.NewNop())

	received := make(chan *domain.AuctionEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- subscriber.SubscribeToAuctionEvents(ctx, func(event *domain.AuctionEvent) error {
			if event.Type == domain.ItemCancelled {
				return errors.New("handler failure is logged, not fatal")
			}
			received <- event
			return nil
		})
	}()

	waitForSubscriber(t, client, DefaultChannel)

	// Malformed payloads are skipped.
	if err := client.Publish(ctx, DefaultChannel, "not json").Err(); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	events := []*domain.AuctionEvent{
		{ID: "evt-1", Type: domain.ItemCancelled, ItemID: 3, UserID: "seller", Timestamp: time.Now().UTC()},
		{ID: "evt-2", Type: domain.BidAccepted, ItemID: 3, UserID: "alice", Amount: decimal.RequireFromString("42.5"), Timestamp: time.Now().UTC()},
	}
	for _, e := range events {
		if err := publisher.PublishAuctionEvent(ctx, e); err != nil {
			t.Fatalf("PublishAuctionEvent: %v", err)
		}
	}

	select {
	case got := <-received:
		if got.ID != "evt-2" || got.ItemID != 3 || !got.Amount.Equal(events[1].Amount) {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func waitForSubscriber(t *testing.T, client *redis.Client, channel string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		counts, err := client.PubSubNumSub(context.Background(), channel).Result()
		if err == nil && counts[channel] > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no subscriber on %s", channel)
}

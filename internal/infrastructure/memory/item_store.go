// Package memory holds an in-process ItemStore with the same atomic
// re-validation as the SQL store. Every operation runs under one mutex.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

type ItemStore struct {
	mu       sync.Mutex
	items    map[int64]*domain.AuctionItem
	bids     map[int64][]*domain.Bid
	nextItem int64
	nextBid  int64
	now      func() time.Time
}

func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[int64]*domain.AuctionItem),
		bids:  make(map[int64][]*domain.Bid),
		now:   time.Now,
	}
}

// SetClock replaces the time source used for end-time and bid-time checks.
func (s *ItemStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *ItemStore) Add(ctx context.Context, item *domain.AuctionItem) (*domain.AuctionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItem++
	stored := *item
	stored.ID = s.nextItem
	stored.Bids = nil
	s.items[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *ItemStore) GetByID(ctx context.Context, itemID int64) (*domain.AuctionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return nil, nil
	}
	return s.snapshot(itemID, false), nil
}

func (s *ItemStore) GetHighestBidItem(ctx context.Context, itemID int64) (*domain.AuctionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return nil, nil
	}
	return s.snapshot(itemID, true), nil
}

func (s *ItemStore) Cancel(ctx context.Context, itemID int64, requesterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.SellerID != requesterID || item.Status != domain.StatusInitial || item.EndTime.Before(s.now()) {
		return false, nil
	}
	item.Status = domain.StatusCancelled
	return true, nil
}

func (s *ItemStore) PlaceBid(ctx context.Context, itemID int64, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	now := s.now()
	if !ok || item.SellerID == bidderID || !item.Open(now) {
		return nil, domain.ErrBidRejected
	}

	current := s.snapshot(itemID, false)
	if !domain.ExceedsIncrement(domain.CurrentHighest(current), amount) {
		return nil, domain.ErrBidTooLow
	}

	s.nextBid++
	bid := &domain.Bid{
		ID:       s.nextBid,
		ItemID:   itemID,
		BidderID: bidderID,
		Amount:   domain.RoundUpToHalf(amount),
		PlacedAt: now,
	}
	s.bids[itemID] = append(s.bids[itemID], bid)

	out := *bid
	return &out, nil
}

func (s *ItemStore) MarkPaid(ctx context.Context, itemID int64, payerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.Status != domain.StatusInitial {
		return false, nil
	}
	highest := s.snapshot(itemID, false).HighestBid()
	if highest == nil || highest.BidderID != payerID {
		return false, nil
	}
	item.Status = domain.StatusPaid
	return true, nil
}

func (s *ItemStore) GetSoldByUser(ctx context.Context, sellerID string) ([]*domain.AuctionItem, error) {
	return s.filter(func(item *domain.AuctionItem) bool {
		return item.SellerID == sellerID && item.Status == domain.StatusPaid
	}), nil
}

func (s *ItemStore) GetPurchasedByUser(ctx context.Context, buyerID string) ([]*domain.AuctionItem, error) {
	return s.filter(func(item *domain.AuctionItem) bool {
		if item.Status != domain.StatusPaid {
			return false
		}
		hb := item.HighestBid()
		return hb != nil && hb.BidderID == buyerID
	}), nil
}

func (s *ItemStore) GetBidsByItem(ctx context.Context, itemID int64) ([]*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyBids(s.bids[itemID]), nil
}

func (s *ItemStore) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.AuctionItem, error) {
	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()

	categories := make(map[int64]bool, len(filter.CategoryIDs))
	for _, id := range filter.CategoryIDs {
		categories[id] = true
	}

	items := s.filter(func(item *domain.AuctionItem) bool {
		if item.Status == domain.StatusCancelled || item.EndTime.Before(now) {
			return false
		}
		if len(categories) > 0 && !categories[item.CategoryID] {
			return false
		}
		if filter.MaxPrice != nil {
			for _, b := range item.Bids {
				if b.Amount.LessThanOrEqual(*filter.MaxPrice) {
					return true
				}
			}
			return false
		}
		return true
	})

	// Search results do not carry bids, matching the SQL store.
	for _, item := range items {
		item.Bids = nil
	}
	return items, nil
}

func (s *ItemStore) GetAwaitingSettlement(ctx context.Context, before time.Time) ([]*domain.AuctionItem, error) {
	items := s.filter(func(item *domain.AuctionItem) bool {
		return item.Status == domain.StatusInitial && item.EndTime.Before(before) && len(item.Bids) > 0
	})
	for _, item := range items {
		sortByAmount(item.Bids)
	}
	return items, nil
}

// filter returns snapshots (bids in placement order) of matching items, soonest-ending first.
func (s *ItemStore) filter(keep func(*domain.AuctionItem) bool) []*domain.AuctionItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.AuctionItem, 0)
	for id := range s.items {
		snap := s.snapshot(id, false)
		if keep(snap) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].EndTime.Before(out[j].EndTime)
	})
	return out
}

// snapshot copies an item and its bids so callers never share state with the store.
// The caller must hold s.mu.
func (s *ItemStore) snapshot(itemID int64, byAmount bool) *domain.AuctionItem {
	item := *s.items[itemID]
	item.Bids = copyBids(s.bids[itemID])
	if byAmount {
		sortByAmount(item.Bids)
	}
	return &item
}

func copyBids(bids []*domain.Bid) []*domain.Bid {
	out := make([]*domain.Bid, 0, len(bids))
	for _, b := range bids {
		c := *b
		out = append(out, &c)
	}
	return out
}

func sortByAmount(bids []*domain.Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Amount.GreaterThan(bids[j].Amount)
	})
}

package services

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SettlementMonitor periodically reports auctions that ended with bids but
// have not been paid. It only observes; status changes stay user-driven.
// With a leader election configured, only the leader instance runs the sweep.
type SettlementMonitor struct {
	cron       *cron.Cron
	items      repositories.ItemStore
	leader     domain.LeaderElection
	instanceID string
	schedule   string
	log        logger.Logger
	now        func() time.Time
}

func NewSettlementMonitor(items repositories.ItemStore, leader domain.LeaderElection, instanceID, schedule string,
	log logger.Logger) *SettlementMonitor {
	return &SettlementMonitor{
		cron:       cron.New(cron.WithSeconds()),
		items:      items,
		leader:     leader,
		instanceID: instanceID,
		schedule:   schedule,
		log:        log,
		now:        time.Now,
	}
}

func (m *SettlementMonitor) Start(ctx context.Context) error {
	m.log.Info("Starting settlement monitor", "schedule", m.schedule)

	_, err := m.cron.AddFunc(m.schedule, func() {
		if _, err := m.RunOnce(ctx); err != nil {
			m.log.Error("Settlement sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling settlement sweep: %w", err)
	}

	m.cron.Start()
	return nil
}

func (m *SettlementMonitor) Stop() error {
	m.log.Info("Stopping settlement monitor")
	<-m.cron.Stop().Done()
	return nil
}

// RunOnce performs a single sweep and returns how many items are awaiting payment.
// A follower instance skips the sweep and reports zero.
func (m *SettlementMonitor) RunOnce(ctx context.Context) (int, error) {
	if m.leader != nil {
		isLeader, err := m.leader.IsLeader(ctx, m.instanceID)
		if err != nil {
			return 0, fmt.Errorf("checking leadership: %w", err)
		}
		if !isLeader {
			m.log.Debug("Not the leader, skipping settlement sweep", "instance_id", m.instanceID)
			return 0, nil
		}
	}

	items, err := m.items.GetAwaitingSettlement(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("listing items awaiting settlement: %w", err)
	}

	for _, item := range items {
		hb := item.HighestBid()
		if hb == nil {
			continue
		}
		m.log.Info("Auction awaiting payment",
			"item_id", item.ID,
			"ended_at", item.EndTime,
			"winner_id", hb.BidderID,
			"amount", hb.Amount,
		)
	}
	return len(items), nil
}

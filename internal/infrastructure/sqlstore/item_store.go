package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

const itemColumns = `i.id, i.name, i.description, i.starting_price, i.start_time, i.end_time, i.status, i.category_id, i.seller_id`

// Highest amount first; the earlier bid wins a tie.
const bidsByAmount = `ORDER BY amount DESC, placed_at ASC, id ASC`

type ItemStore struct {
	db  *Database
	now func() time.Time
}

func NewItemStore(db *Database) *ItemStore {
	return &ItemStore{db: db, now: time.Now}
}

// SetClock replaces the time source used for end-time and bid-time checks.
func (s *ItemStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ItemStore) Add(ctx context.Context, item *domain.AuctionItem) (*domain.AuctionItem, error) {
	stored := *item
	stored.StartTime = normalizeTime(item.StartTime)
	stored.EndTime = normalizeTime(item.EndTime)
	stored.Bids = nil

	query := `
        INSERT INTO auction_items (name, description, starting_price, start_time, end_time, status, category_id, seller_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	res, err := s.db.ExecContext(ctx, query,
		stored.Name, stored.Description, stored.StartingPrice,
		toMillis(stored.StartTime), toMillis(stored.EndTime),
		stored.Status.String(), stored.CategoryID, stored.SellerID)
	if err != nil {
		return nil, fmt.Errorf("inserting auction item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting auction item id: %w", err)
	}
	stored.ID = id
	return &stored, nil
}

func (s *ItemStore) GetByID(ctx context.Context, itemID int64) (*domain.AuctionItem, error) {
	item, err := getItem(ctx, s.db, itemID, "")
	if err != nil || item == nil {
		return nil, err
	}

	item.Bids, err = listBids(ctx, s.db, itemID, `ORDER BY placed_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemStore) GetHighestBidItem(ctx context.Context, itemID int64) (*domain.AuctionItem, error) {
	item, err := getItem(ctx, s.db, itemID, "")
	if err != nil || item == nil {
		return nil, err
	}

	item.Bids, err = listBids(ctx, s.db, itemID, bidsByAmount)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemStore) Cancel(ctx context.Context, itemID int64, requesterID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, itemID, s.db.lockClause())
	if err != nil {
		return false, err
	}
	if item == nil || item.SellerID != requesterID || item.Status != domain.StatusInitial || item.EndTime.Before(s.now()) {
		return false, nil
	}

	if err := updateStatus(ctx, tx, itemID, domain.StatusCancelled); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing cancellation: %w", err)
	}
	return true, nil
}

func (s *ItemStore) PlaceBid(ctx context.Context, itemID int64, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, itemID, s.db.lockClause())
	if err != nil {
		return nil, err
	}
	now := s.now()
	if item == nil || item.SellerID == bidderID || !item.Open(now) {
		return nil, domain.ErrBidRejected
	}

	highest := item.StartingPrice
	var top decimal.Decimal
	err = tx.QueryRowContext(ctx, `SELECT amount FROM bids WHERE item_id = ? `+bidsByAmount+` LIMIT 1`, itemID).Scan(&top)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("reading highest bid: %w", err)
	default:
		highest = top
	}

	if !domain.ExceedsIncrement(highest, amount) {
		return nil, domain.ErrBidTooLow
	}

	bid := &domain.Bid{
		ItemID:   itemID,
		BidderID: bidderID,
		Amount:   domain.RoundUpToHalf(amount),
		PlacedAt: normalizeTime(now),
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bids (item_id, bidder_id, amount, placed_at) VALUES (?, ?, ?, ?)`,
		bid.ItemID, bid.BidderID, bid.Amount, toMillis(bid.PlacedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting bid: %w", err)
	}
	if bid.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting bid id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bid: %w", err)
	}
	return bid, nil
}

func (s *ItemStore) MarkPaid(ctx context.Context, itemID int64, payerID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getItem(ctx, tx, itemID, s.db.lockClause())
	if err != nil {
		return false, err
	}
	if item == nil || item.Status != domain.StatusInitial {
		return false, nil
	}

	var bidderID string
	err = tx.QueryRowContext(ctx, `SELECT bidder_id FROM bids WHERE item_id = ? `+bidsByAmount+` LIMIT 1`, itemID).Scan(&bidderID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading highest bidder: %w", err)
	}
	if bidderID != payerID {
		return false, nil
	}

	if err := updateStatus(ctx, tx, itemID, domain.StatusPaid); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing payment: %w", err)
	}
	return true, nil
}

func (s *ItemStore) GetSoldByUser(ctx context.Context, sellerID string) ([]*domain.AuctionItem, error) {
	query := `SELECT ` + itemColumns + ` FROM auction_items i
        WHERE i.seller_id = ? AND i.status = ?
        ORDER BY i.end_time ASC, i.id ASC`
	return queryItems(ctx, s.db, query, sellerID, domain.StatusPaid.String())
}

func (s *ItemStore) GetPurchasedByUser(ctx context.Context, buyerID string) ([]*domain.AuctionItem, error) {
	query := `SELECT ` + itemColumns + ` FROM auction_items i
        WHERE i.status = ?
          AND ? = (SELECT b.bidder_id FROM bids b WHERE b.item_id = i.id
                   ORDER BY b.amount DESC, b.placed_at ASC, b.id ASC LIMIT 1)
        ORDER BY i.end_time ASC, i.id ASC`
	return queryItems(ctx, s.db, query, domain.StatusPaid.String(), buyerID)
}

func (s *ItemStore) GetBidsByItem(ctx context.Context, itemID int64) ([]*domain.Bid, error) {
	return listBids(ctx, s.db, itemID, `ORDER BY placed_at ASC, id ASC`)
}

func (s *ItemStore) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.AuctionItem, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM auction_items i WHERE i.status <> ? AND i.end_time >= ?`)
	args := []interface{}{domain.StatusCancelled.String(), toMillis(s.now())}

	if len(filter.CategoryIDs) > 0 {
		sb.WriteString(` AND i.category_id IN (?` + strings.Repeat(`, ?`, len(filter.CategoryIDs)-1) + `)`)
		for _, id := range filter.CategoryIDs {
			args = append(args, id)
		}
	}
	if filter.MaxPrice != nil {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM bids b WHERE b.item_id = i.id AND b.amount <= ?)`)
		args = append(args, *filter.MaxPrice)
	}
	sb.WriteString(` ORDER BY i.end_time ASC, i.id ASC`)

	return queryItems(ctx, s.db, sb.String(), args...)
}

func (s *ItemStore) GetAwaitingSettlement(ctx context.Context, before time.Time) ([]*domain.AuctionItem, error) {
	query := `SELECT ` + itemColumns + ` FROM auction_items i
        WHERE i.status = ? AND i.end_time < ?
          AND EXISTS (SELECT 1 FROM bids b WHERE b.item_id = i.id)
        ORDER BY i.end_time ASC, i.id ASC`
	items, err := queryItems(ctx, s.db, query, domain.StatusInitial.String(), toMillis(before))
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Bids, err = listBids(ctx, s.db, item.ID, bidsByAmount); err != nil {
			return nil, err
		}
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*domain.AuctionItem, error) {
	var item domain.AuctionItem
	var start, end int64
	var status string

	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.StartingPrice,
		&start, &end, &status, &item.CategoryID, &item.SellerID)
	if err != nil {
		return nil, err
	}

	item.StartTime = fromMillis(start)
	item.EndTime = fromMillis(end)
	if item.Status, err = domain.ParseAuctionStatus(status); err != nil {
		return nil, err
	}
	return &item, nil
}

// getItem returns nil, nil when the item does not exist.
func getItem(ctx context.Context, q querier, itemID int64, lock string) (*domain.AuctionItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM auction_items i WHERE i.id = ?`+lock, itemID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting auction item %d: %w", itemID, err)
	}
	return item, nil
}

func queryItems(ctx context.Context, q querier, query string, args ...interface{}) ([]*domain.AuctionItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying auction items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.AuctionItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning auction item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func listBids(ctx context.Context, q querier, itemID int64, order string) ([]*domain.Bid, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, item_id, bidder_id, amount, placed_at FROM bids WHERE item_id = ? `+order, itemID)
	if err != nil {
		return nil, fmt.Errorf("querying bids: %w", err)
	}
	defer rows.Close()

	bids := make([]*domain.Bid, 0)
	for rows.Next() {
		var b domain.Bid
		var placed int64
		if err := rows.Scan(&b.ID, &b.ItemID, &b.BidderID, &b.Amount, &placed); err != nil {
			return nil, fmt.Errorf("scanning bid: %w", err)
		}
		b.PlacedAt = fromMillis(placed)
		bids = append(bids, &b)
	}
	return bids, rows.Err()
}

func updateStatus(ctx context.Context, q querier, itemID int64, status domain.AuctionStatus) error {
	_, err := q.ExecContext(ctx, `UPDATE auction_items SET status = ? WHERE id = ?`, status.String(), itemID)
	if err != nil {
		return fmt.Errorf("updating status of item %d: %w", itemID, err)
	}
	return nil
}

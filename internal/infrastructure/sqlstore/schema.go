package sqlstore

import (
	"context"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id   BIGINT PRIMARY KEY,
		name VARCHAR(100) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auction_items (
		id             BIGINT AUTO_INCREMENT PRIMARY KEY,
		name           VARCHAR(255) NOT NULL,
		description    TEXT NOT NULL,
		starting_price DECIMAL(18,2) NOT NULL,
		start_time     BIGINT NOT NULL,
		end_time       BIGINT NOT NULL,
		status         VARCHAR(16) NOT NULL,
		category_id    BIGINT NOT NULL,
		seller_id      VARCHAR(191) NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories(id),
		INDEX idx_items_seller (seller_id),
		INDEX idx_items_end (end_time)
	)`,
	`CREATE TABLE IF NOT EXISTS bids (
		id        BIGINT AUTO_INCREMENT PRIMARY KEY,
		item_id   BIGINT NOT NULL,
		bidder_id VARCHAR(191) NOT NULL,
		amount    DECIMAL(18,2) NOT NULL,
		placed_at BIGINT NOT NULL,
		FOREIGN KEY (item_id) REFERENCES auction_items(id),
		INDEX idx_bids_item_amount (item_id, amount)
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id         BIGINT AUTO_INCREMENT PRIMARY KEY,
		item_id    BIGINT NOT NULL,
		user_id    VARCHAR(191) NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (item_id) REFERENCES auction_items(id),
		INDEX idx_favorites_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_subscriptions (
		user_id    VARCHAR(191) PRIMARY KEY,
		tier       VARCHAR(16) NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auction_events (
		id          VARCHAR(64) PRIMARY KEY,
		item_id     BIGINT NOT NULL,
		event_type  VARCHAR(32) NOT NULL,
		user_id     VARCHAR(191) NOT NULL,
		amount      DECIMAL(18,2) NOT NULL,
		occurred_at BIGINT NOT NULL,
		created_at  BIGINT NOT NULL,
		INDEX idx_events_item (item_id, occurred_at)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auction_items (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL,
		starting_price DECIMAL(18,2) NOT NULL,
		start_time     INTEGER NOT NULL,
		end_time       INTEGER NOT NULL,
		status         TEXT NOT NULL,
		category_id    INTEGER NOT NULL REFERENCES categories(id),
		seller_id      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_seller ON auction_items(seller_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_end ON auction_items(end_time)`,
	`CREATE TABLE IF NOT EXISTS bids (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id   INTEGER NOT NULL REFERENCES auction_items(id),
		bidder_id TEXT NOT NULL,
		amount    DECIMAL(18,2) NOT NULL,
		placed_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_item_amount ON bids(item_id, amount)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id    INTEGER NOT NULL REFERENCES auction_items(id),
		user_id    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id)`,
	`CREATE TABLE IF NOT EXISTS user_subscriptions (
		user_id    TEXT PRIMARY KEY,
		tier       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auction_events (
		id          TEXT PRIMARY KEY,
		item_id     INTEGER NOT NULL,
		event_type  TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		amount      DECIMAL(18,2) NOT NULL,
		occurred_at INTEGER NOT NULL,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_item ON auction_events(item_id, occurred_at)`,
}

// seedCategories is the fixed category list every deployment starts with.
var seedCategories = []struct {
	ID   int64
	Name string
}{
	{1, "Kunst"},
	{2, "Horloges"},
	{3, "Antiek"},
	{4, "Voertuigen"},
	{5, "Juwelen"},
	{6, "Elektronica"},
	{7, "Boeken"},
}

// EnsureSchema creates missing tables and seeds the categories. Safe to run repeatedly.
func (d *Database) EnsureSchema(ctx context.Context) error {
	stmts := sqliteSchema
	if d.Dialect == DialectMySQL {
		stmts = mysqlSchema
	}
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	for _, c := range seedCategories {
		_, err := d.ExecContext(ctx, d.insertIgnore()+` INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name)
		if err != nil {
			return fmt.Errorf("seeding category %d: %w", c.ID, err)
		}
	}
	return nil
}

package sqlstore

import (
	"context"
	"testing"
)

// NewTestDB returns an in-memory SQLite database with the schema applied.
// It is closed when the test finishes.
func NewTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := Open(context.Background(), Options{Driver: string(DialectSQLite), DSN: ":memory:"})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

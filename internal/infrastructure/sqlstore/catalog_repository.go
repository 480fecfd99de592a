package sqlstore

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
)

type CategoryRepository struct {
	db *Database
}

func NewCategoryRepository(db *Database) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

type FavoriteRepository struct {
	db  *Database
	now func() time.Time
}

func NewFavoriteRepository(db *Database) *FavoriteRepository {
	return &FavoriteRepository{db: db, now: time.Now}
}

func (r *FavoriteRepository) Add(ctx context.Context, itemID int64, userID string) (*domain.Favorite, error) {
	fav := &domain.Favorite{
		ItemID:    itemID,
		UserID:    userID,
		CreatedAt: normalizeTime(r.now()),
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (item_id, user_id, created_at) VALUES (?, ?, ?)`,
		fav.ItemID, fav.UserID, toMillis(fav.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting favorite: %w", err)
	}
	if fav.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("getting favorite id: %w", err)
	}
	return fav, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, favoriteID int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ? AND user_id = ?`, favoriteID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted favorites: %w", err)
	}
	return n > 0, nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, user_id, created_at FROM favorites WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]*domain.Favorite, 0)
	for rows.Next() {
		var f domain.Favorite
		var created int64
		if err := rows.Scan(&f.ID, &f.ItemID, &f.UserID, &created); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		f.CreatedAt = fromMillis(created)
		favorites = append(favorites, &f)
	}
	return favorites, rows.Err()
}

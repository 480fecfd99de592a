package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/domain/repositories"
	"auction-marketplace/pkg/logger"
)

// CatalogService serves categories and user favorites.
type CatalogService struct {
	items      repositories.ItemStore
	categories repositories.CategoryRepository
	favorites  repositories.FavoriteRepository
	log        logger.Logger
}

func NewCatalogService(
	items repositories.ItemStore,
	categories repositories.CategoryRepository,
	favorites repositories.FavoriteRepository,
	log logger.Logger,
) *CatalogService {
	return &CatalogService{items: items, categories: categories, favorites: favorites, log: log}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) AddFavorite(ctx context.Context, itemID int64, userID string) (*domain.Favorite, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, domain.NewNotFoundError(domain.MsgItemNotFound)
	}

	fav, err := s.favorites.Add(ctx, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("adding favorite: %w", err)
	}
	s.log.Debug("Favorite added", "favorite_id", fav.ID, "item_id", itemID, "user_id", userID)
	return fav, nil
}

// RemoveFavorite returns false when the favorite does not exist or belongs to someone else.
func (s *CatalogService) RemoveFavorite(ctx context.Context, favoriteID int64, userID string) (bool, error) {
	return s.favorites.Remove(ctx, favoriteID, userID)
}

func (s *CatalogService) ListFavorites(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	return s.favorites.ListByUser(ctx, userID)
}

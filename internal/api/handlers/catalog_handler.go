package handlers

import (
	"net/http"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalog *services.CatalogService
	log     logger.Logger
}

type AddFavoriteRequest struct {
	ItemID int64 `json:"auctionItemId"`
}

func NewCatalogHandler(catalog *services.CatalogService, log logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) AddFavorite(c echo.Context) error {
	var req AddFavoriteRequest
	if err := c.Bind(&req); err != nil || req.ItemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Ongeldige aanvraag.")
	}

	fav, err := h.catalog.AddFavorite(c.Request().Context(), req.ItemID, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, fav)
}

func (h *CatalogHandler) RemoveFavorite(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ok, err := h.catalog.RemoveFavorite(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFoundError("Favoriet niet gevonden.")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) ListFavorites(c echo.Context) error {
	favs, err := h.catalog.ListFavorites(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favs)
}

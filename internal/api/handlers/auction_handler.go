package handlers

import (
	"net/http"
	"strconv"
	"time"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AuctionHandler struct {
	auctionManager *services.AuctionManager
	log            logger.Logger
}

type CreateItemRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"startingPrice"`
	StartDateTime time.Time       `json:"startDateTime"`
	EndDateTime   *time.Time      `json:"endDateTime"`
	CategoryID    int64           `json:"categoryId"`
}

func NewAuctionHandler(auctionManager *services.AuctionManager, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionManager: auctionManager,
		log:            log,
	}
}

func (h *AuctionHandler) CreateItem(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		h.log.Debug("Failed to bind request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Ongeldige aanvraag.")
	}
	if req.CategoryID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Een categorie is verplicht.")
	}

	item, err := h.auctionManager.CreateListing(c.Request().Context(), domain.Listing{
		Name:          req.Name,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		StartTime:     req.StartDateTime,
		EndTime:       req.EndDateTime,
		CategoryID:    req.CategoryID,
	}, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, item)
}

func (h *AuctionHandler) CancelItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ok, err := h.auctionManager.CancelListing(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewNotFoundError("Het veilingitem kon niet worden geannuleerd.")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Veilingitem succesvol geannuleerd."})
}

func (h *AuctionHandler) GetItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	item, err := h.auctionManager.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.NewNotFoundError(domain.MsgItemNotFound)
	}
	return c.JSON(http.StatusOK, item)
}

// GetSoldItems is only available to the seller themselves.
func (h *AuctionHandler) GetSoldItems(c echo.Context) error {
	sellerID := c.Param("userId")
	if sellerID != middleware.UserID(c) {
		return forbidden()
	}

	items, err := h.auctionManager.GetSoldItems(c.Request().Context(), sellerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// GetItemBids is only available to the item's seller.
func (h *AuctionHandler) GetItemBids(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	item, err := h.auctionManager.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.NewNotFoundError(domain.MsgItemHasNoBids)
	}
	if item.SellerID != middleware.UserID(c) {
		return forbidden()
	}

	bids, err := h.auctionManager.GetBidsForItem(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bids)
}

// SearchItems reads repeated categoryIds and an optional maxPrice from the query.
func (h *AuctionHandler) SearchItems(c echo.Context) error {
	var filter domain.SearchFilter

	for _, raw := range c.QueryParams()["categoryIds"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Ongeldige categorie.")
		}
		filter.CategoryIDs = append(filter.CategoryIDs, id)
	}

	if raw := c.QueryParam("maxPrice"); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Ongeldige maximumprijs.")
		}
		filter.MaxPrice = &maxPrice
	}

	items, err := h.auctionManager.SearchItems(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

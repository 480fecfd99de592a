package handlers

import (
	"net/http"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	bidService        *services.BidService
	settlementService *services.SettlementService
	auctionManager    *services.AuctionManager
	log               logger.Logger
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func NewBidHandler(bidService *services.BidService, settlementService *services.SettlementService,
	auctionManager *services.AuctionManager, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService:        bidService,
		settlementService: settlementService,
		auctionManager:    auctionManager,
		log:               log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Debug("Failed to bind request", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Ongeldige aanvraag.")
	}

	bid, err := h.bidService.PlaceBid(c.Request().Context(), id, middleware.UserID(c), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) GetPurchasedItems(c echo.Context) error {
	buyerID := c.Param("userId")
	if buyerID != middleware.UserID(c) {
		return forbidden()
	}

	items, err := h.auctionManager.GetPurchasedItems(c.Request().Context(), buyerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *BidHandler) AuthorizePayment(c echo.Context) error {
	buyerID := c.Param("userId")
	if buyerID != middleware.UserID(c) {
		return forbidden()
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}

	ok, err := h.settlementService.AuthorizePayment(c.Request().Context(), itemID, buyerID)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Betaling mislukt of niet toegestaan.")
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Betaling geslaagd."})
}

// Package api assembles the marketplace HTTP surface on echo.
package api

import (
	"io"
	"net/http"
	"time"

	"auction-marketplace/internal/api/handlers"
	authmw "auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const accessLogFormat = `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","user_agent":"${user_agent}","status":${status},"error":"${error}","latency":${latency},"latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n"

type Services struct {
	Auctions      *services.AuctionManager
	Bids          *services.BidService
	Payments      *services.SettlementService
	Catalog       *services.CatalogService
	Subscriptions *services.SubscriptionService
}

type Options struct {
	JWTSecret   string
	ServiceName string
	// AccessLog receives one JSON line per request. Nil keeps echo's default (stdout).
	AccessLog io.Writer
}

func NewServer(svc Services, opts Options, log logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler(log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: accessLogFormat,
		Output: opts.AccessLog,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
		},
		MaxAge: 86400,
	}))

	auctionHandler := handlers.NewAuctionHandler(svc.Auctions, log)
	bidHandler := handlers.NewBidHandler(svc.Bids, svc.Payments, svc.Auctions, log)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, log)

	var recorder authmw.TierRecorder
	if svc.Subscriptions != nil {
		recorder = svc.Subscriptions
	}
	requireAuth := authmw.JWTAuth(opts.JWTSecret, recorder, log)

	apiGroup := e.Group("/api")
	apiGroup.GET("/categories", catalogHandler.ListCategories)

	auction := apiGroup.Group("/auction")
	auction.GET("/items/search", auctionHandler.SearchItems)
	auction.GET("/items/:id", auctionHandler.GetItem)
	auction.POST("/items", auctionHandler.CreateItem, requireAuth)
	auction.DELETE("/items/:id/cancel", auctionHandler.CancelItem, requireAuth)
	auction.GET("/items/:id/biddings", auctionHandler.GetItemBids, requireAuth)
	auction.POST("/items/:id/bids", bidHandler.PlaceBid, requireAuth)
	auction.GET("/sellers/:userId/items", auctionHandler.GetSoldItems, requireAuth)
	auction.GET("/buyers/:userId/items", bidHandler.GetPurchasedItems, requireAuth)
	auction.POST("/buyers/:userId/items/:itemId/payment", bidHandler.AuthorizePayment, requireAuth)

	favorites := apiGroup.Group("/favorites", requireAuth)
	favorites.GET("", catalogHandler.ListFavorites)
	favorites.POST("", catalogHandler.AddFavorite)
	favorites.DELETE("/:id", catalogHandler.RemoveFavorite)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   opts.ServiceName,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	return e
}

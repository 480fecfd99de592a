package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-marketplace/internal/api/handlers"
	authmw "auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/sqlstore"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db := sqlstore.NewTestDB(t)
	log := logger.NewNop()

	items := sqlstore.NewItemStore(db)
	subscriptions := services.NewSubscriptionService(sqlstore.NewSubscriptionRepository(db), nil, time.Minute, log)
	svc := Services{
		Auctions:      services.NewAuctionManager(items, subscriptions, nil, log),
		Bids:          services.NewBidService(items, nil, log),
		Payments:      services.NewSettlementService(items, nil, log),
		Catalog:       services.NewCatalogService(items, sqlstore.NewCategoryRepository(db), sqlstore.NewFavoriteRepository(db), log),
		Subscriptions: subscriptions,
	}
	return NewServer(svc, Options{JWTSecret: testJWTSecret, ServiceName: "marketplace", AccessLog: io.Discard}, log)
}

func tokenFor(t *testing.T, userID string, tier domain.Tier) string {
	t.Helper()
	token, err := authmw.GenerateToken(testJWTSecret, userID, tier, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func do(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	resp := decode[handlers.ErrorResponse](t, rec)
	if resp.StatusCode != status {
		t.Errorf("body statusCode %d, want %d", resp.StatusCode, status)
	}
	if message != "" && resp.Message != message {
		t.Errorf("expected message %q, got %q", message, resp.Message)
	}
}

func listingBody(name string, start time.Time, end *time.Time) map[string]any {
	body := map[string]any{
		"name":          name,
		"description":   "Staande klok",
		"startingPrice": 10,
		"startDateTime": start.Format(time.RFC3339Nano),
		"categoryId":    2,
	}
	if end != nil {
		body["endDateTime"] = end.Format(time.RFC3339Nano)
	}
	return body
}

func TestHealth(t *testing.T) {
	e := setupTestServer(t)
	rec := do(t, e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["service"] != "marketplace" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	e := setupTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/auction/items", "", listingBody("Klok", time.Now(), nil))
	expectError(t, rec, http.StatusUnauthorized, "")

	rec = do(t, e, http.MethodGet, "/api/favorites", "garbage", nil)
	expectError(t, rec, http.StatusUnauthorized, "")

	rec = do(t, e, http.MethodGet, "/api/categories", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categories should be public, got %d", rec.Code)
	}
	if categories := decode[[]domain.Category](t, rec); len(categories) != 7 {
		t.Errorf("expected 7 categories, got %d", len(categories))
	}
}

func TestCreateItemValidation(t *testing.T) {
	e := setupTestServer(t)
	seller := tokenFor(t, "seller", domain.TierFree)

	rec := do(t, e, http.MethodPost, "/api/auction/items", seller, listingBody("  ", time.Now(), nil))
	expectError(t, rec, http.StatusBadRequest, domain.MsgNameRequired)

	rec = do(t, e, http.MethodPost, "/api/auction/items", seller, listingBody("Klok", time.Now().Add(-time.Hour), nil))
	expectError(t, rec, http.StatusBadRequest, domain.MsgStartInPast)

	// The Gold claim is recorded by the auth middleware and used as the seller's tier.
	gold := tokenFor(t, "gold-seller", domain.TierGold)
	start := time.Now().Add(time.Minute)
	end := start.Add(time.Hour)
	rec = do(t, e, http.MethodPost, "/api/auction/items", gold, listingBody("Klok", start, &end))
	expectError(t, rec, http.StatusBadRequest, domain.MsgEndTooSoon)

	end = start.Add(48 * time.Hour)
	rec = do(t, e, http.MethodPost, "/api/auction/items", gold, listingBody("Klok", start, &end))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	item := decode[domain.AuctionItem](t, rec)
	if !item.EndTime.Equal(end.UTC().Truncate(time.Millisecond)) {
		t.Errorf("expected requested end %v, got %v", end, item.EndTime)
	}
}

func TestAuctionFlow(t *testing.T) {
	e := setupTestServer(t)
	seller := tokenFor(t, "seller", domain.TierFree)
	alice := tokenFor(t, "alice", domain.TierFree)
	bob := tokenFor(t, "bob", domain.TierFree)

	rec := do(t, e, http.MethodPost, "/api/auction/items", seller, listingBody("Klok", time.Now(), nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	item := decode[domain.AuctionItem](t, rec)
	if item.Status != domain.StatusInitial || item.SellerID != "seller" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if got := item.EndTime.Sub(item.StartTime); got != 72*time.Hour {
		t.Errorf("free listing should run 72h, got %v", got)
	}
	itemPath := fmt.Sprintf("/api/auction/items/%d", item.ID)

	// Bidding.
	rec = do(t, e, http.MethodPost, itemPath+"/bids", seller, map[string]any{"amount": 50})
	expectError(t, rec, http.StatusBadRequest, domain.MsgOwnItemBid)

	rec = do(t, e, http.MethodPost, itemPath+"/bids", alice, map[string]any{"amount": 10.5})
	expectError(t, rec, http.StatusBadRequest, domain.MsgBidTooLow)

	rec = do(t, e, http.MethodPost, itemPath+"/bids", alice, map[string]any{"amount": 20.2})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	bid := decode[domain.Bid](t, rec)
	if bid.Amount.String() != "20.5" || bid.BidderID != "alice" {
		t.Errorf("unexpected bid: %+v", bid)
	}

	rec = do(t, e, http.MethodPost, "/api/auction/items/999/bids", alice, map[string]any{"amount": 20})
	expectError(t, rec, http.StatusNotFound, domain.MsgItemNotFound)

	// Reads.
	rec = do(t, e, http.MethodGet, itemPath, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[domain.AuctionItem](t, rec); len(got.Bids) != 1 {
		t.Errorf("expected item with 1 bid, got %d", len(got.Bids))
	}

	rec = do(t, e, http.MethodGet, "/api/auction/items/999", "", nil)
	expectError(t, rec, http.StatusNotFound, domain.MsgItemNotFound)

	rec = do(t, e, http.MethodGet, "/api/auction/items/abc", "", nil)
	expectError(t, rec, http.StatusBadRequest, "")

	rec = do(t, e, http.MethodGet, itemPath+"/biddings", alice, nil)
	expectError(t, rec, http.StatusForbidden, "")

	rec = do(t, e, http.MethodGet, "/api/auction/items/999/biddings", seller, nil)
	expectError(t, rec, http.StatusNotFound, domain.MsgItemHasNoBids)

	rec = do(t, e, http.MethodGet, itemPath+"/biddings", seller, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if bids := decode[[]domain.Bid](t, rec); len(bids) != 1 {
		t.Errorf("expected 1 bid, got %d", len(bids))
	}

	// Search.
	rec = do(t, e, http.MethodGet, "/api/auction/items/search?categoryIds=2&categoryIds=3&maxPrice=25", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if found := decode[[]domain.AuctionItem](t, rec); len(found) != 1 || found[0].ID != item.ID {
		t.Errorf("unexpected search result: %+v", found)
	}
	rec = do(t, e, http.MethodGet, "/api/auction/items/search?maxPrice=20", "", nil)
	if found := decode[[]domain.AuctionItem](t, rec); len(found) != 0 {
		t.Errorf("no bid is at or under 20, got %d items", len(found))
	}
	rec = do(t, e, http.MethodGet, "/api/auction/items/search?maxPrice=veel", "", nil)
	expectError(t, rec, http.StatusBadRequest, "")

	// Payment.
	rec = do(t, e, http.MethodPost, fmt.Sprintf("/api/auction/buyers/alice/items/%d/payment", item.ID), bob, nil)
	expectError(t, rec, http.StatusForbidden, "")

	rec = do(t, e, http.MethodPost, fmt.Sprintf("/api/auction/buyers/bob/items/%d/payment", item.ID), bob, nil)
	expectError(t, rec, http.StatusBadRequest, domain.MsgNotHighestBidder)

	rec = do(t, e, http.MethodPost, fmt.Sprintf("/api/auction/buyers/alice/items/%d/payment", item.ID), alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := decode[handlers.MessageResponse](t, rec); msg.Message != "Betaling geslaagd." {
		t.Errorf("unexpected message %q", msg.Message)
	}

	rec = do(t, e, http.MethodPost, fmt.Sprintf("/api/auction/buyers/alice/items/%d/payment", item.ID), alice, nil)
	expectError(t, rec, http.StatusBadRequest, domain.MsgPaymentNotPossible)

	// Sold and purchased lists.
	rec = do(t, e, http.MethodGet, "/api/auction/sellers/seller/items", seller, nil)
	if sold := decode[[]domain.AuctionItem](t, rec); len(sold) != 1 || sold[0].Status != domain.StatusPaid {
		t.Errorf("unexpected sold items: %+v", sold)
	}
	rec = do(t, e, http.MethodGet, "/api/auction/sellers/seller/items", alice, nil)
	expectError(t, rec, http.StatusForbidden, "")

	rec = do(t, e, http.MethodGet, "/api/auction/buyers/alice/items", alice, nil)
	if bought := decode[[]domain.AuctionItem](t, rec); len(bought) != 1 {
		t.Errorf("expected 1 purchased item, got %d", len(bought))
	}

	// Cancellation.
	rec = do(t, e, http.MethodDelete, itemPath+"/cancel", alice, nil)
	expectError(t, rec, http.StatusBadRequest, domain.MsgOnlySellerCancels)

	rec = do(t, e, http.MethodDelete, itemPath+"/cancel", seller, nil)
	expectError(t, rec, http.StatusNotFound, "")
}

func TestCancelItem(t *testing.T) {
	e := setupTestServer(t)
	seller := tokenFor(t, "seller", domain.TierFree)

	rec := do(t, e, http.MethodPost, "/api/auction/items", seller, listingBody("Klok", time.Now(), nil))
	item := decode[domain.AuctionItem](t, rec)

	rec = do(t, e, http.MethodDelete, fmt.Sprintf("/api/auction/items/%d/cancel", item.ID), seller, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := decode[handlers.MessageResponse](t, rec); msg.Message != "Veilingitem succesvol geannuleerd." {
		t.Errorf("unexpected message %q", msg.Message)
	}

	rec = do(t, e, http.MethodDelete, "/api/auction/items/999/cancel", seller, nil)
	expectError(t, rec, http.StatusNotFound, domain.MsgItemNotFound)

	rec = do(t, e, http.MethodGet, "/api/auction/items/search", "", nil)
	if found := decode[[]domain.AuctionItem](t, rec); len(found) != 0 {
		t.Errorf("cancelled items must not be listed, got %d", len(found))
	}
}

func TestFavorites(t *testing.T) {
	e := setupTestServer(t)
	seller := tokenFor(t, "seller", domain.TierFree)
	alice := tokenFor(t, "alice", domain.TierFree)

	rec := do(t, e, http.MethodPost, "/api/auction/items", seller, listingBody("Klok", time.Now(), nil))
	item := decode[domain.AuctionItem](t, rec)

	rec = do(t, e, http.MethodPost, "/api/favorites", alice, map[string]any{"auctionItemId": 999})
	expectError(t, rec, http.StatusNotFound, domain.MsgItemNotFound)

	rec = do(t, e, http.MethodPost, "/api/favorites", alice, map[string]any{"auctionItemId": item.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	fav := decode[domain.Favorite](t, rec)

	rec = do(t, e, http.MethodGet, "/api/favorites", alice, nil)
	if favs := decode[[]domain.Favorite](t, rec); len(favs) != 1 || favs[0].ItemID != item.ID {
		t.Errorf("unexpected favorites: %+v", favs)
	}

	rec = do(t, e, http.MethodDelete, fmt.Sprintf("/api/favorites/%d", fav.ID), seller, nil)
	expectError(t, rec, http.StatusNotFound, "")

	rec = do(t, e, http.MethodDelete, fmt.Sprintf("/api/favorites/%d", fav.ID), alice, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

// Package audit serves the recorded auction event history over HTTP.
package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"auction-marketplace/internal/api/middleware"
	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/gorilla/mux"
)

type HistoryReader interface {
	History(ctx context.Context, itemID int64) ([]*domain.AuctionEvent, error)
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type handler struct {
	history HistoryReader
	log     logger.Logger
}

func NewRouter(history HistoryReader, log logger.Logger) *mux.Router {
	h := &handler{history: history, log: log}

	router := mux.NewRouter()
	router.Use(middleware.CORS(log))

	router.HandleFunc("/items/{id:[0-9]+}/events", h.itemEvents).Methods(http.MethodGet, http.MethodOptions)

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"service":   "audit",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	return router
}

func (h *handler) itemEvents(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || itemID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{StatusCode: http.StatusBadRequest, Message: "Ongeldig id."})
		return
	}

	events, err := h.history.History(r.Context(), itemID)
	if err != nil {
		h.log.Error("Failed to load event history", "item_id", itemID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    "Er is een onverwachte fout opgetreden.",
		})
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/domain/entity"
	"github.com/damon-houk/fx-rate-sync/internal/domain/repository"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// LatestRates serves the most recent persisted observation per target
type LatestRates interface {
	Get(target string) (entity.RateObservation, bool)
	All() []entity.RateObservation
}

// RateHandler handles HTTP requests for stored rates
type RateHandler struct {
	repo   repository.RateRepository
	latest LatestRates
	logger logger.Logger
}

// NewRateHandler creates a new rate handler
func NewRateHandler(repo repository.RateRepository, latest LatestRates, log logger.Logger) *RateHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &RateHandler{
		repo:   repo,
		latest: latest,
		logger: log,
	}
}

// GetLatestRates returns the latest cached rates, optionally for a single currency
func (h *RateHandler) GetLatestRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	currency := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	if currency == "" {
		rates := h.latest.All()
		sendJSON(w, h.logger, http.StatusOK, LatestRatesResponse{
			Count: len(rates),
			Rates: toRateResponses(rates),
		})
		return
	}

	if !entity.IsCurrencyCode(currency) {
		sendErrorResponse(w, h.logger, "Invalid currency code",
			"Currency code should be 3 letters (e.g., EUR, GBP, CAD)", http.StatusBadRequest, requestID)
		return
	}

	obs, ok := h.latest.Get(currency)
	if !ok {
		h.logger.Debug("No latest rate cached", map[string]interface{}{
			"request_id": requestID,
			"currency":   currency,
		})
		sendErrorResponse(w, h.logger, "Rate not found",
			"No recent rate has been recorded for the requested currency", http.StatusNotFound, requestID)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, LatestRatesResponse{
		Count: 1,
		Rates: []RateResponse{toRateResponse(obs)},
	})
}

// GetRates returns the stored observations of one monthly partition
func (h *RateHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	partition := strings.TrimSpace(r.URL.Query().Get("partition"))
	currency := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))

	h.logger.Info("Handling rates query", map[string]interface{}{
		"request_id": requestID,
		"partition":  partition,
		"currency":   currency,
	})

	if partition == "" {
		sendErrorResponse(w, h.logger, "Missing partition parameter",
			"The 'partition' query parameter is required (YYYY-MM)", http.StatusBadRequest, requestID)
		return
	}

	if _, err := time.Parse(entity.PartitionLayout, partition); err != nil {
		sendErrorResponse(w, h.logger, "Invalid partition",
			"Partition must be in YYYY-MM format", http.StatusBadRequest, requestID)
		return
	}

	if currency != "" && !entity.IsCurrencyCode(currency) {
		sendErrorResponse(w, h.logger, "Invalid currency code",
			"Currency code should be 3 letters (e.g., EUR, GBP, CAD)", http.StatusBadRequest, requestID)
		return
	}

	observations, err := h.repo.FindByPartition(r.Context(), partition, currency)
	if err != nil {
		h.logger.Error("Failed to query rates", map[string]interface{}{
			"request_id": requestID,
			"partition":  partition,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"Stored rates could not be read. Please try again later.", http.StatusInternalServerError, requestID)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, RatesResponse{
		Partition: partition,
		Currency:  currency,
		Count:     len(observations),
		Rates:     toRateResponses(observations),
	})
}

// RegisterRoutes registers the rate handler routes
func (h *RateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/rates/latest", h.GetLatestRates).Methods("GET")
	router.HandleFunc("/rates", h.GetRates).Methods("GET")

	h.logger.Info("Rate routes registered", map[string]interface{}{
		"routes": []string{
			"GET /rates/latest",
			"GET /rates",
		},
	})
}

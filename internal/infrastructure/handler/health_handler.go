package handler

import (
	"net/http"
	"time"

	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/scheduler"
	"github.com/gorilla/mux"
)

// JobLister reports the registered scheduled jobs
type JobLister interface {
	Entries() []scheduler.EntryInfo
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	jobs   JobLister
	logger logger.Logger
}

// NewHealthHandler creates a new health handler. jobs may be nil.
func NewHealthHandler(jobs JobLister, log logger.Logger) *HealthHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &HealthHandler{
		jobs:   jobs,
		logger: log,
	}
}

// Health reports that the process is serving along with the next scheduled runs
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if h.jobs != nil {
		resp.Jobs = h.jobs.Entries()
	}

	sendJSON(w, h.logger, http.StatusOK, resp)
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.Health).Methods("GET")
}

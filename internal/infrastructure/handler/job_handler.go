// Package handler internal/infrastructure/handler/job_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/damon-houk/fx-rate-sync/internal/apperrors"
	"github.com/damon-houk/fx-rate-sync/internal/application/service"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/middleware"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/scheduler"
	"github.com/gorilla/mux"
)

// SyncRunner runs one sync cycle
type SyncRunner interface {
	SyncCycle(ctx context.Context) (*service.SyncReport, error)
}

// SweepRunner runs or previews one retention sweep
type SweepRunner interface {
	Sweep(ctx context.Context) (*service.SweepReport, error)
	Preview(ctx context.Context) (*service.SweepReport, error)
}

// JobGuard serializes runs of the same job
type JobGuard interface {
	Exclusive(ctx context.Context, name string, job scheduler.Job) error
}

// JobHandler handles manual job triggers
type JobHandler struct {
	sync   SyncRunner
	sweep  SweepRunner
	guard  JobGuard
	logger logger.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(sync SyncRunner, sweep SweepRunner, guard JobGuard, log logger.Logger) *JobHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &JobHandler{
		sync:   sync,
		sweep:  sweep,
		guard:  guard,
		logger: log,
	}
}

// TriggerSync runs a sync cycle on the request path and returns its report
func (h *JobHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	h.logger.Info("Handling manual sync trigger", map[string]interface{}{
		"request_id": requestID,
	})

	var report *service.SyncReport
	err := h.guard.Exclusive(context.WithoutCancel(r.Context()), scheduler.JobSync, func(ctx context.Context) error {
		var runErr error
		report, runErr = h.sync.SyncCycle(ctx)
		return runErr
	})

	var unavailable *apperrors.SourceUnavailableError
	switch {
	case err == nil:
		sendJSON(w, h.logger, http.StatusOK, report)
	case errors.Is(err, scheduler.ErrJobRunning):
		h.logger.Warn("Sync already running", map[string]interface{}{
			"request_id": requestID,
		})
		sendErrorResponse(w, h.logger, "Sync already running",
			"A sync cycle is in progress. Try again when it finishes.", http.StatusConflict, requestID)
	case errors.As(err, &unavailable):
		h.logger.Error("Rate source unavailable", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Rate source unavailable",
			"Both the primary and the fallback provider failed", http.StatusBadGateway, requestID)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("Sync cycle timed out", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Sync cycle timed out",
			"The cycle did not finish within its deadline", http.StatusGatewayTimeout, requestID)
	default:
		h.logger.Error("Unexpected error in sync trigger", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred. Please try again later.", http.StatusInternalServerError, requestID)
	}
}

// TriggerSweep runs a retention sweep on the request path and returns its report.
// With dry_run=true it only counts what would be deleted.
func (h *JobHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	dryRun := r.URL.Query().Get("dry_run") == "true"

	h.logger.Info("Handling manual sweep trigger", map[string]interface{}{
		"request_id": requestID,
		"dry_run":    dryRun,
	})

	if dryRun {
		report, err := h.sweep.Preview(r.Context())
		if err != nil {
			h.logger.Error("Retention preview failed", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			sendErrorResponse(w, h.logger, "Retention preview failed",
				"Expired observations could not be counted", http.StatusInternalServerError, requestID)
			return
		}
		sendJSON(w, h.logger, http.StatusOK, report)
		return
	}

	var report *service.SweepReport
	err := h.guard.Exclusive(context.WithoutCancel(r.Context()), scheduler.JobSweep, func(ctx context.Context) error {
		var runErr error
		report, runErr = h.sweep.Sweep(ctx)
		return runErr
	})

	var sweepErr *apperrors.SweepError
	switch {
	case err == nil:
		sendJSON(w, h.logger, http.StatusOK, report)
	case errors.Is(err, scheduler.ErrJobRunning):
		sendErrorResponse(w, h.logger, "Sweep already running",
			"A retention sweep is in progress. Try again when it finishes.", http.StatusConflict, requestID)
	case errors.As(err, &sweepErr):
		h.logger.Error("Retention sweep failed", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Retention sweep failed",
			"Expired observations could not be deleted", http.StatusInternalServerError, requestID)
	default:
		h.logger.Error("Unexpected error in sweep trigger", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred. Please try again later.", http.StatusInternalServerError, requestID)
	}
}

// RegisterRoutes registers the job handler routes
func (h *JobHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/jobs/sync", h.TriggerSync).Methods("POST")
	router.HandleFunc("/jobs/sweep", h.TriggerSweep).Methods("POST")

	h.logger.Info("Job routes registered", map[string]interface{}{
		"routes": []string{
			"POST /jobs/sync",
			"POST /jobs/sweep",
		},
	})
}

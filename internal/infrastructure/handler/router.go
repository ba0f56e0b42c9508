package handler

import (
	"net/http"

	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/logger"
	"github.com/damon-houk/fx-rate-sync/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteRegistrar is implemented by every handler that owns routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// NewRouter builds the admin router with the middleware stack, the given handlers
// and a /metrics endpoint served from gatherer.
func NewRouter(log logger.Logger, gatherer prometheus.Gatherer, handlers ...RouteRegistrar) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggingMiddleware(log))

	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendErrorResponse(w, log, "Not found", "No route matches "+r.URL.Path, http.StatusNotFound, "")
	})

	return router
}

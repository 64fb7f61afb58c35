// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pondworks/pondgate/api/resources"
	"github.com/pondworks/pondgate/internal/monitoring"
	"github.com/pondworks/pondgate/internal/repository"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
}

func NewRouter(status repository.StatusReader, metrics repository.MetricsReader, stats *monitoring.Service, deps map[string]repository.Pinger) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(status, metrics, stats, deps),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	v1 := r.router.PathPrefix("/api/v1").Subrouter()

	// All routes are public and read-only; the gateway carries no auth
	// layer and the API never writes back into the ingestion path.
	v1.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	v1.HandleFunc("/status", r.resources.GetStatus).Methods(http.MethodGet)
	v1.HandleFunc("/stats", r.resources.Stats).Methods(http.MethodGet)

	metrics := v1.PathPrefix("/metrics").Subrouter()
	metrics.HandleFunc("/station", r.resources.GetStationMetrics).Methods(http.MethodGet)
	metrics.HandleFunc("/pond", r.resources.GetPondMetrics).Methods(http.MethodGet)
}

// Handler returns the configured mux for the HTTP server.
func (r *Router) Handler() http.Handler {
	return r.router
}

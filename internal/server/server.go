// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/pondworks/pondgate/api"
	"github.com/pondworks/pondgate/internal/config"
	"github.com/pondworks/pondgate/internal/monitoring"
	"github.com/pondworks/pondgate/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Server is the read-only HTTP surface over the core's output: latest
// status, historical metrics, ingestion counters. It is a consumer of
// the data the ingestion loop produces, never a producer.
type Server struct {
	config *config.ServerConfig
	srv    *http.Server
}

// New creates a new server instance
func New(cfg *config.ServerConfig, status repository.StatusReader, metrics repository.MetricsReader, stats *monitoring.Service, deps map[string]repository.Pinger) *Server {
	router := api.NewRouter(status, metrics, stats, deps)

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
	)(handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet}),
	)(router.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start begins listening in a background goroutine and returns a channel
// surfacing a fatal listen error, if any.
func (s *Server) Start() <-chan error {
	errs := make(chan error, 1)
	go func() {
		nuts.L.Infof("[Server] Listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()
	return errs
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	nuts.L.Infof("[Server] Shut down cleanly")
	return nil
}

type recoveryLogger struct{}

func (recoveryLogger) Println(args ...interface{}) {
	nuts.L.Errorf("[Server] Panic in handler: %v", args)
}

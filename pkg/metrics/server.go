package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cuemby/minder/pkg/log"
)

// Server exposes /metrics, /health, and /ready over HTTP. It is optional:
// the daemon only starts one when a metrics address is configured.
type Server struct {
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates the metrics HTTP server
func NewServer() *Server {
	mux := http.NewServeMux()
	s := &Server{mux: mux}

	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/ready", ReadyHandler())
	mux.Handle("/metrics", Handler())

	return s
}

// Start serves on addr until Stop is called. It blocks; run it in its own
// goroutine.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger := log.WithComponent("metrics")
	logger.Info().Str("addr", addr).Msg("Metrics listener started")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the listener down, waiting for in-flight scrapes up to the
// context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler for embedding in other servers
func (s *Server) GetHandler() http.Handler {
	return s.mux
}

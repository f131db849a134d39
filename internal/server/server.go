package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server owns the HTTP listener and its graceful-shutdown lifecycle.
type Server struct {
	http *http.Server
}

// New creates a Server listening on addr and routing through router. The
// write timeout leaves headroom for media uploads, which are the slowest
// requests the API serves.
func New(addr string, router chi.Router) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start serves requests until Shutdown is called. A shutdown-triggered exit
// returns nil; anything else is a real listen failure.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits, up to the context's
// deadline, for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

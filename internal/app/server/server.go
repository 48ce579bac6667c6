package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mamadaliyev66/CAM-APP/internal/config"
)

type Server struct {
	httpServer *http.Server
	notify     chan error
}

// New builds the HTTP server. Lesson streams and media uploads may run for
// minutes, so only request headers are bounded by cfg.Timeout.
func New(cfg config.HTTPServer, handler http.Handler) *Server {
	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Timeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return &Server{httpServer: httpServer, notify: make(chan error, 1)}
}

func (s *Server) Start() {
	go func() {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.notify <- err
		close(s.notify)
	}()
}

// Notify yields the serve error, or nil after a clean shutdown.
func (s *Server) Notify() <-chan error {
	return s.notify
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

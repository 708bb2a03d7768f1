package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Server wraps the HTTP server with graceful shutdown support.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// NewServer creates the HTTP server around a configured engine.
func NewServer(cfg config.HTTPConfig, engine *gin.Engine, log *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.GetHTTPAddr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		log: log,
	}
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully with a bounded drain window.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.log.Info("http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

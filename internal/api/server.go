package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hongsenwang01/knowledge-base/internal/config"
	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// Server runs the HTTP API with graceful shutdown.
type Server struct {
	server          *http.Server
	logger          kb.Logger
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a stopped Server for handler. Call Start to serve.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger kb.Logger) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = config.DefaultAddr
	}
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       config.Timeout(cfg.ReadTimeoutSeconds, 30*time.Second),
			WriteTimeout:      config.Timeout(cfg.WriteTimeoutSeconds, 5*time.Minute),
			IdleTimeout:       2 * time.Minute,
		},
		logger:          logger,
		shutdownTimeout: config.Timeout(cfg.ShutdownTimeoutSeconds, 10*time.Second),
	}
}

// Start listens and serves until ctx is cancelled or the listener fails.
// Cancellation triggers a graceful shutdown and Start returns its result.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutdown signal received")
		// The cancelled ctx would abort the shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			s.logger.Error("API server shutdown error", "error", err)
			return
		}
		s.logger.Info("API server stopped gracefully")
	})
	return shutdownErr
}

// Addr returns the bound address once Start is listening, or the configured
// address before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Package api serves the estimator over HTTP and websockets.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Config holds the listener settings.
type Config struct {
	Address        string        `mapstructure:"address"`
	Timeout        time.Duration `mapstructure:"timeout"`
	AllowedOrigins []string      `mapstructure:"allowed-origins"`
}

// DefaultConfig mirrors the documented defaults.
func DefaultConfig() Config {
	return Config{
		Address:        ":8000",
		Timeout:        60 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Server is the HTTP front end.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer builds the mux and middleware chain.
func NewServer(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Address == "" {
		cfg.Address = DefaultConfig().Address
	}

	return &Server{
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           NewHandler(cfg, deps),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: deps.Logger,
	}
}

// NewHandler returns the routed handler wrapped in the middleware chain.
func NewHandler(cfg Config, deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	Routes(mux, deps)

	chain := Chain(
		Recovery(deps.Logger),
		AccessLog(deps.Logger),
		CORS(cfg.AllowedOrigins),
		Timeout(cfg.Timeout),
	)
	return chain(mux)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", ln.Addr().String()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// Package api provides the HTTP surface of the Kolada MCP server.
//
// Endpoints:
//
//	GET  /health  →  liveness probe
//	GET  /ready   →  readiness probe (503 until catalog and index loaded)
//	     /mcp     →  MCP over streamable HTTP
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints and the readiness probe state
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ekdahl/kolada-mcp/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server wrapping the MCP handler and health probes.
type Server struct {
	mux    *http.ServeMux
	health *HealthHandler
	logger log.Logger
}

// NewServer creates an HTTP server with all routes registered. mcpHandler
// serves the MCP protocol over streamable HTTP; nil disables the /mcp
// route (health-only mode).
func NewServer(health *HealthHandler, mcpHandler http.Handler, logger log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		health: health,
		logger: logger,
	}

	health.RegisterRoutes(mux)
	if mcpHandler != nil {
		mux.Handle("/mcp", mcpHandler)
	}

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, s.recoveryMiddleware, s.loggingMiddleware)
}

// Run starts the HTTP server and blocks until the context is canceled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	// No ReadTimeout/WriteTimeout: the /mcp stream stays open for the
	// whole session.
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

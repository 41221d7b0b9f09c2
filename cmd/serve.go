package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/ekdahl/kolada-mcp/api"
	"github.com/ekdahl/kolada-mcp/internal/app"
	"github.com/ekdahl/kolada-mcp/internal/mcp"
)

// runServe initializes and starts the HTTP server: MCP over streamable
// HTTP at /mcp plus the /health and /ready probes.
func runServe() error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	addr := cfg.ServeAddr
	if len(os.Args) > 2 {
		addr = os.Args[2]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting HTTP server", "version", Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Name:    AppName,
		Version: Version,
		Kit:     a.Kit,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	health := httpapi.NewHealthHandler(a.Probe, logger)
	srv := httpapi.NewServer(health, mcpServer.HTTPHandler(), logger)

	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	logger.Info("HTTP server shut down gracefully")
	return nil
}

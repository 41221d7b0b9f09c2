// Package cmd provides the CLI commands for the Kolada MCP server.
//
// Commands:
//   - mcp: Model Context Protocol server on stdio (for Claude Desktop etc.)
//   - serve: HTTP server with MCP over streamable HTTP and health probes
//   - index: offline embedding index builder
//
// Signal handling and graceful shutdown are implemented for all commands
// via context cancellation.
package cmd

import (
	"fmt"
	"os"

	"github.com/ekdahl/kolada-mcp/internal/config"
	"github.com/ekdahl/kolada-mcp/internal/log"
)

// Execute is the main entry point for the kolada-mcp application.
func Execute() error {
	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "mcp":
		return runMCP()
	case "serve":
		return runServe()
	case "index":
		return runIndex()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// loadConfigAndLogger is the common startup path of every command. The
// logger writes to stderr so stdio MCP transport on stdout stays clean.
func loadConfigAndLogger() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	return cfg, logger, nil
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("kolada-mcp - Swedish municipal statistics for AI clients")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kolada-mcp mcp          Start MCP server on stdio (for Claude Desktop/Cursor)")
	fmt.Println("  kolada-mcp serve [addr] Start HTTP server with /mcp, /health and /ready (default: 127.0.0.1:3400)")
	fmt.Println("  kolada-mcp index        Build the embedding index artifact from the live catalog")
	fmt.Println("  kolada-mcp --version    Show version information")
	fmt.Println("  kolada-mcp --help       Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY          Required: Gemini API key for the embedder")
	fmt.Println("  KOLADA_LOG_LEVEL        Optional: debug, info, warn, error (default: info)")
	fmt.Println("  KOLADA_INDEX_PATH       Optional: embedding artifact path (default: kpi_embeddings.db)")
	fmt.Println()
	fmt.Println("Configuration is also read from ~/.kolada-mcp/config.yaml or ./config.yaml.")
}

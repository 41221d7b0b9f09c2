package cmd

import (
	"fmt"
	"os"
)

// AppName is the MCP server name announced to clients.
const AppName = "kolada-mcp"

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func runVersion() {
	fmt.Printf("%s %s\n", AppName, Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Println()
		fmt.Println("Hint: set GEMINI_API_KEY for semantic search and index builds")
		fmt.Println("  export GEMINI_API_KEY=your-api-key")
	}
}

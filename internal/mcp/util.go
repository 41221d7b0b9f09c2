package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ekdahl/kolada-mcp/internal/log"
	"github.com/ekdahl/kolada-mcp/internal/tools"
)

// Error detail policy: the code, message and request id are safe to expose.
// Anything else (paths, config values, upstream URLs) stays in the server
// logs.

// resultToMCP converts a tools.Result to an MCP tool result. Failed
// results become IsError text the model can parse and act on.
func resultToMCP(result tools.Result, logger log.Logger) *mcp.CallToolResult {
	if result.Status == tools.StatusError {
		errorText := fmt.Sprintf("[%s] %s", result.Error.Code, result.Error.Message)
		if result.RequestID != "" {
			errorText += fmt.Sprintf(" (request_id: %s)", result.RequestID)
		}
		if len(result.Error.Details) > 0 {
			detailsJSON, err := json.Marshal(result.Error.Details)
			if err != nil {
				logger.Warn("marshaling error details", "error", err)
			} else {
				errorText += fmt.Sprintf("\nDetails: %s", string(detailsJSON))
			}
		}

		logger.Debug("tool error returned",
			"request_id", result.RequestID, "code", result.Error.Code)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: errorText}},
			IsError: true,
		}
	}

	return dataToMCP(result.Data)
}

// dataToMCP converts arbitrary data to MCP text content via JSON. All data
// becomes JSON; clients parse it.
func dataToMCP(data any) *mcp.CallToolResult {
	if data == nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: ""}},
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "marshal error"}},
			IsError: true,
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

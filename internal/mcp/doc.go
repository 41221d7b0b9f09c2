// Package mcp exposes the Kolada tool kit over the Model Context Protocol
// using the official Go SDK.
//
// The server registers each tool with a typed input schema inferred via
// jsonschema-go. Handlers stay thin: decode input, call the kit, convert
// the Result envelope to an MCP tool result. Domain failures become
// IsError tool results the model can read; only system failures propagate
// as protocol errors.
package mcp

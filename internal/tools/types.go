package tools

import (
	"errors"

	"github.com/ekdahl/kolada-mcp/internal/analysis"
	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/embedding"
	"github.com/ekdahl/kolada-mcp/internal/kolada"
)

// Status values for tool results.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorCode is a stable, machine-readable error classification. Clients
// branch on the code; the message is for humans.
type ErrorCode string

// Error codes returned by tool handlers.
const (
	ErrCodeNotFound         ErrorCode = "NotFound"
	ErrCodeValidation       ErrorCode = "ValidationError"
	ErrCodeUpstream         ErrorCode = "UpstreamError"
	ErrCodeTimeout          ErrorCode = "TimeoutError"
	ErrCodeInsufficientData ErrorCode = "InsufficientData"
	ErrCodeIndex            ErrorCode = "IndexError"
	ErrCodeInternal         ErrorCode = "InternalError"
)

// Error is the structured error carried by a failed Result.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Result is the uniform envelope every tool handler returns. A handler
// error return is reserved for system failures; domain failures come back
// as Status == StatusError so the model can read the code and correct its
// call.
type Result struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
}

// classifyError maps domain sentinel errors onto the error code enum.
func classifyError(err error) ErrorCode {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, analysis.ErrInsufficientData):
		return ErrCodeInsufficientData
	case errors.Is(err, kolada.ErrUpstreamTimeout):
		return ErrCodeTimeout
	case errors.Is(err, kolada.ErrUpstream):
		return ErrCodeUpstream
	case errors.Is(err, embedding.ErrEmptyQuery),
		errors.Is(err, embedding.ErrInvalidArgument):
		return ErrCodeValidation
	case errors.Is(err, embedding.ErrIndexIntegrity):
		return ErrCodeIndex
	default:
		return ErrCodeInternal
	}
}

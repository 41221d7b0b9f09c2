// Package tools implements the Kolada tool handlers exposed over MCP.
//
// Each handler takes a typed input, returns a Result envelope, and reserves
// its error return for system failures. Expected domain failures (unknown
// indicator id, upstream outage, too few observations) are reported inside
// the Result with a stable error code so calling models can self-correct.
package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/embedding"
	"github.com/ekdahl/kolada-mcp/internal/kolada"
	"github.com/ekdahl/kolada-mcp/internal/log"
)

// ObservationSource fetches observations for one indicator, typically
// through the TTL cache.
type ObservationSource interface {
	Get(ctx context.Context, kpiID string, municipalityIDs []string, years []int) ([]kolada.Observation, error)
}

// Searcher performs semantic search over the indicator catalog.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, minScore *float64) ([]embedding.Match, error)
}

// KitConfig holds all required dependencies for Kit.
type KitConfig struct {
	Catalog      *catalog.Catalog
	Searcher     Searcher
	Observations ObservationSource
	Logger       log.Logger
}

// Kit provides the Kolada tool handlers for MCP registration.
type Kit struct {
	catalog      *catalog.Catalog
	searcher     Searcher
	observations ObservationSource
	logger       log.Logger
}

// NewKit creates a tool kit with all required dependencies.
func NewKit(cfg KitConfig) (*Kit, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("KitConfig.Catalog is required")
	}
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("KitConfig.Searcher is required")
	}
	if cfg.Observations == nil {
		return nil, fmt.Errorf("KitConfig.Observations is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("KitConfig.Logger is required")
	}

	return &Kit{
		catalog:      cfg.Catalog,
		searcher:     cfg.Searcher,
		observations: cfg.Observations,
		logger:       cfg.Logger,
	}, nil
}

// requestID tags one tool invocation for log correlation. The id is safe to
// expose to clients; nothing else from the server internals is.
func requestID() string {
	return uuid.NewString()
}

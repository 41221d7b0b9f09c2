// Package app wires the application together: Genkit, the Kolada client,
// catalog, embedding index, observation cache and the tool kit.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ekdahl/kolada-mcp/api"
	"github.com/ekdahl/kolada-mcp/internal/cache"
	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/config"
	"github.com/ekdahl/kolada-mcp/internal/embedding"
	"github.com/ekdahl/kolada-mcp/internal/kolada"
	"github.com/ekdahl/kolada-mcp/internal/log"
	"github.com/ekdahl/kolada-mcp/internal/tools"
)

// App is the application container. Catalog and Index are read-only after
// Setup; the cache is the only shared mutable state.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Client   *kolada.Client
	Catalog  *catalog.Catalog
	Index    *embedding.Index
	Searcher *embedding.Searcher
	Cache    *cache.Observations
	Kit      *tools.Kit
	Probe    *api.Probe
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Cache != nil {
		a.Cache.Flush()
	}
	a.Logger.Info("application shut down")
	return nil
}

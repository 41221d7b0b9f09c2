package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/ekdahl/kolada-mcp/api"
	"github.com/ekdahl/kolada-mcp/internal/cache"
	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/config"
	"github.com/ekdahl/kolada-mcp/internal/embedding"
	"github.com/ekdahl/kolada-mcp/internal/kolada"
	"github.com/ekdahl/kolada-mcp/internal/log"
	"github.com/ekdahl/kolada-mcp/internal/tools"
)

// Setup initializes the full serving application: Genkit, the upstream
// client, catalog, embedding index, cache and tool kit. An index that does
// not match the live catalog is fatal; the server never starts in a
// partial state.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	a, err := SetupBuilder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	index, err := embedding.LoadIndex(cfg.IndexPath, a.Catalog, cfg.EmbedderModel)
	if err != nil {
		if errors.Is(err, embedding.ErrIndexIntegrity) {
			return nil, fmt.Errorf("embedding index %s does not match the live catalog, rebuild with `kolada-mcp index`: %w",
				cfg.IndexPath, err)
		}
		return nil, fmt.Errorf("loading embedding index: %w", err)
	}
	a.Index = index
	a.Searcher = embedding.NewSearcher(index, embedding.NewGenkitEmbedder(a.Embedder), a.Catalog)

	a.Cache = cache.New(a.Client, cfg.CacheTTL, logger)

	kit, err := tools.NewKit(tools.KitConfig{
		Catalog:      a.Catalog,
		Searcher:     a.Searcher,
		Observations: a.Cache,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tool kit: %w", err)
	}
	a.Kit = kit

	a.Probe = api.NewProbe()
	a.Probe.SetReady(a.Catalog.KPICount(), a.Catalog.MunicipalityCount(), index.Len())

	logger.Info("application ready",
		"kpis", a.Catalog.KPICount(),
		"municipalities", a.Catalog.MunicipalityCount(),
		"vectors", index.Len())

	return a, nil
}

// SetupBuilder initializes just what the offline index builder needs:
// Genkit with the embedder, the upstream client and a fresh catalog. No
// index is loaded.
func SetupBuilder(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Client = kolada.New(kolada.Config{
		BaseURL:        cfg.KoladaBaseURL,
		PageSize:       cfg.KoladaPageSize,
		Timeout:        cfg.HTTPTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RateLimit:      cfg.RateLimit,
	}, logger)

	cat, err := loadCatalog(ctx, a.Client, logger)
	if err != nil {
		return nil, err
	}
	a.Catalog = cat

	return a, nil
}

func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai plugin")
	}
	return g, nil
}

func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// loadCatalog pulls the full KPI and municipality listings from Kolada.
// Runs once per process start.
func loadCatalog(ctx context.Context, client *kolada.Client, logger log.Logger) (*catalog.Catalog, error) {
	logger.Info("loading Kolada catalog")

	kpis, err := client.FetchKPIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching KPI listing: %w", err)
	}

	municipalities, err := client.FetchMunicipalities(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching municipality listing: %w", err)
	}

	cat, err := catalog.New(kpis, municipalities)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	logger.Info("catalog loaded", "kpis", cat.KPICount(), "municipalities", cat.MunicipalityCount())
	return cat, nil
}

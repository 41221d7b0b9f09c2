package embedding

import (
	"context"
	"fmt"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/log"
)

// BuildConfig holds offline index-builder parameters.
type BuildConfig struct {
	Model     string
	Dimension int
	Path      string
}

// BuildIndex embeds every catalog indicator and writes the artifact. Run
// offline via `kolada-mcp index`; the serving process only ever loads the
// result. Vectors are L2-normalized before storage.
func BuildIndex(ctx context.Context, cat *catalog.Catalog, embedder Embedder, cfg BuildConfig, logger log.Logger) error {
	if logger == nil {
		logger = log.NewNop()
	}

	kpis := cat.KPIs()
	logger.Info("building embedding index", "kpis", len(kpis), "model", cfg.Model, "dimension", cfg.Dimension)

	vectors := make(map[string][]float32, len(kpis))
	for i, k := range kpis {
		vec, err := embedder.Embed(ctx, CanonicalText(k))
		if err != nil {
			return fmt.Errorf("embedding %s: %w", k.ID, err)
		}
		if len(vec) != cfg.Dimension {
			return fmt.Errorf("embedding %s: got dimension %d, want %d", k.ID, len(vec), cfg.Dimension)
		}
		vectors[k.ID] = l2Normalize(vec)

		if (i+1)%500 == 0 {
			logger.Info("embedding progress", "done", i+1, "total", len(kpis))
		}
	}

	meta := Meta{
		FormatVersion: FormatVersion,
		Model:         cfg.Model,
		Dimension:     cfg.Dimension,
		CatalogHash:   CatalogHash(cat),
	}
	if err := WriteArtifact(cfg.Path, meta, vectors); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}

	logger.Info("embedding index written", "path", cfg.Path, "vectors", len(vectors))
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ekdahl/kolada-mcp/internal/app"
	"github.com/ekdahl/kolada-mcp/internal/embedding"
)

// runIndex builds the embedding index artifact from the live catalog. Run
// offline whenever the catalog or embedder model changes; the serving
// commands only ever load the result.
func runIndex() error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("building embedding index",
		"model", cfg.EmbedderModel,
		"dimension", cfg.EmbeddingDimension,
		"path", cfg.IndexPath)

	a, err := app.SetupBuilder(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	err = embedding.BuildIndex(ctx, a.Catalog, embedding.NewGenkitEmbedder(a.Embedder), embedding.BuildConfig{
		Model:     cfg.EmbedderModel,
		Dimension: cfg.EmbeddingDimension,
		Path:      cfg.IndexPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	logger.Info("embedding index built", "path", cfg.IndexPath, "kpis", a.Catalog.KPICount())
	return nil
}

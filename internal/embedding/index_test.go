package embedding

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/log"
)

const testModel = "test-embedder-001"

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.KPI{
		{ID: "N00001", Title: "Skattesats", Description: "Kommunal skattesats", OperatingArea: "Ekonomi"},
		{ID: "N00002", Title: "Behörighet åk 9", Description: "Andel behöriga elever", OperatingArea: "Utbildning"},
		{ID: "N00003", Title: "Invånare totalt", OperatingArea: "Befolkning"},
	}, nil)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

// fixedEmbedder returns preset vectors keyed by input text and falls back
// to a default vector for unknown inputs.
type fixedEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	calls    int
	err      error
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return append([]float32(nil), v...), nil
	}
	return append([]float32(nil), f.fallback...), nil
}

func buildTestArtifact(t *testing.T, cat *catalog.Catalog) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kpi_embeddings.db")

	emb := &fixedEmbedder{
		vectors: map[string][]float32{
			"Skattesats. Kommunal skattesats":      {1, 0, 0},
			"Behörighet åk 9. Andel behöriga elever": {0, 1, 0},
			"Invånare totalt":                      {0, 0, 1},
		},
		fallback: []float32{1, 1, 1},
	}

	err := BuildIndex(context.Background(), cat, emb, BuildConfig{
		Model:     testModel,
		Dimension: 3,
		Path:      path,
	}, log.NewNop())
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	return path
}

func TestBuildAndLoadRoundTrip(t *testing.T) {
	cat := testCatalog(t)
	path := buildTestArtifact(t, cat)

	idx, err := LoadIndex(path, cat, testModel)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3", idx.Len())
	}
	if idx.Dimension() != 3 {
		t.Errorf("Dimension = %d, want 3", idx.Dimension())
	}
	if idx.Meta().Model != testModel {
		t.Errorf("Model = %q", idx.Meta().Model)
	}
	if idx.Meta().CatalogHash != CatalogHash(cat) {
		t.Error("catalog hash mismatch after round trip")
	}

	// Stored vectors must be unit length.
	for i, vec := range idx.vectors {
		var sum float64
		for _, x := range vec {
			sum += float64(x) * float64(x)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("vector %s not normalized: |v|^2 = %f", idx.ids[i], sum)
		}
	}
}

func TestLoadRejectsModelMismatch(t *testing.T) {
	cat := testCatalog(t)
	path := buildTestArtifact(t, cat)

	_, err := LoadIndex(path, cat, "other-model")
	if !errors.Is(err, ErrIndexIntegrity) {
		t.Fatalf("got %v, want ErrIndexIntegrity", err)
	}
}

func TestLoadRejectsCatalogDrift(t *testing.T) {
	cat := testCatalog(t)
	path := buildTestArtifact(t, cat)

	// A catalog with a changed description has a different snapshot hash.
	drifted, err := catalog.New([]catalog.KPI{
		{ID: "N00001", Title: "Skattesats", Description: "ÄNDRAD", OperatingArea: "Ekonomi"},
		{ID: "N00002", Title: "Behörighet åk 9", Description: "Andel behöriga elever", OperatingArea: "Utbildning"},
		{ID: "N00003", Title: "Invånare totalt", OperatingArea: "Befolkning"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := LoadIndex(path, drifted, testModel); !errors.Is(err, ErrIndexIntegrity) {
		t.Fatalf("got %v, want ErrIndexIntegrity for catalog drift", err)
	}
}

func TestLoadRejectsMissingVector(t *testing.T) {
	cat := testCatalog(t)
	path := filepath.Join(t.TempDir(), "partial.db")

	// Artifact covering only two of three indicators but carrying the full
	// catalog hash: the id-set check must fail.
	meta := Meta{
		FormatVersion: FormatVersion,
		Model:         testModel,
		Dimension:     3,
		CatalogHash:   CatalogHash(cat),
	}
	vectors := map[string][]float32{
		"N00001": {1, 0, 0},
		"N00002": {0, 1, 0},
	}
	if err := WriteArtifact(path, meta, vectors); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}

	if _, err := LoadIndex(path, cat, testModel); !errors.Is(err, ErrIndexIntegrity) {
		t.Fatalf("got %v, want ErrIndexIntegrity for missing vector", err)
	}
}

func TestLoadRejectsOrphanedVector(t *testing.T) {
	cat := testCatalog(t)
	path := filepath.Join(t.TempDir(), "orphan.db")

	meta := Meta{
		FormatVersion: FormatVersion,
		Model:         testModel,
		Dimension:     3,
		CatalogHash:   CatalogHash(cat),
	}
	vectors := map[string][]float32{
		"N00001": {1, 0, 0},
		"N00002": {0, 1, 0},
		"N00003": {0, 0, 1},
		"N99999": {1, 1, 1}, // not in the catalog
	}
	if err := WriteArtifact(path, meta, vectors); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}

	if _, err := LoadIndex(path, cat, testModel); !errors.Is(err, ErrIndexIntegrity) {
		t.Fatalf("got %v, want ErrIndexIntegrity for orphaned vector", err)
	}
}

func TestBuildRejectsDimensionMismatch(t *testing.T) {
	cat := testCatalog(t)
	path := filepath.Join(t.TempDir(), "dim.db")

	emb := &fixedEmbedder{fallback: []float32{1, 0}} // dimension 2, config says 3
	err := BuildIndex(context.Background(), cat, emb, BuildConfig{
		Model:     testModel,
		Dimension: 3,
		Path:      path,
	}, log.NewNop())
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestCanonicalText(t *testing.T) {
	k := catalog.KPI{Title: "Skattesats", Description: "Kommunal skattesats"}
	if got := CanonicalText(k); got != "Skattesats. Kommunal skattesats" {
		t.Errorf("CanonicalText = %q", got)
	}

	noDesc := catalog.KPI{Title: "Invånare totalt"}
	if got := CanonicalText(noDesc); got != "Invånare totalt" {
		t.Errorf("CanonicalText without description = %q", got)
	}
}

func TestCatalogHashStable(t *testing.T) {
	cat := testCatalog(t)
	if CatalogHash(cat) != CatalogHash(cat) {
		t.Error("CatalogHash not deterministic")
	}
}

package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
)

// Match is one search hit: the indicator plus its cosine similarity to the
// query, in [-1, 1].
type Match struct {
	KPI   catalog.KPI `json:"kpi"`
	Score float64     `json:"score"`
}

// Searcher ranks catalog indicators against free-text queries. It is a pure
// function of the index and the query: no side effects, safe for concurrent
// use.
type Searcher struct {
	index    *Index
	embedder Embedder
	catalog  *catalog.Catalog
}

// NewSearcher creates a searcher over a validated index.
func NewSearcher(index *Index, embedder Embedder, cat *catalog.Catalog) *Searcher {
	return &Searcher{index: index, embedder: embedder, catalog: cat}
}

// Search embeds the query and returns the topK most similar indicators by
// descending score; equal scores tie-break by ascending indicator id. When
// minScore is non-nil, results below it are dropped even if fewer than topK
// remain.
func (s *Searcher) Search(ctx context.Context, query string, topK int, minScore *float64) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidArgument, topK)
	}

	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(qvec) != s.index.Dimension() {
		return nil, fmt.Errorf("query embedding dimension %d, index dimension %d", len(qvec), s.index.Dimension())
	}
	qvec = l2Normalize(qvec)

	// Index vectors are pre-normalized, so the dot product is the cosine
	// similarity.
	matches := make([]Match, 0, len(s.index.ids))
	for i, id := range s.index.ids {
		score := dot(qvec, s.index.vectors[i])
		if minScore != nil && score < *minScore {
			continue
		}
		kpi, err := s.catalog.KPI(id)
		if err != nil {
			// Load-time validation makes this unreachable.
			return nil, fmt.Errorf("index references unknown kpi %s: %w", id, err)
		}
		matches = append(matches, Match{KPI: kpi, Score: score})
	}

	// ids are sorted ascending, so a stable sort by score preserves the
	// ascending-id order within tied scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

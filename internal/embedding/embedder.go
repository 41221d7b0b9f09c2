// Package embedding implements the semantic KPI search stack: the embed
// capability, the precomputed vector index artifact, the offline builder,
// and cosine-similarity search.
//
// Vectors are L2-normalized at build time and at query time, so similarity
// is a plain dot product. This choice is fixed in the artifact format; the
// loader and the searcher both assume it.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/firebase/genkit/go/ai"
)

var (
	// ErrIndexIntegrity indicates the embedding artifact does not match the
	// live catalog or the configured model. Fatal at startup: the server
	// never falls back to partial search.
	ErrIndexIntegrity = errors.New("embedding index integrity error")

	// ErrEmptyQuery indicates a blank search query.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidArgument indicates a malformed search argument such as a
	// non-positive top_k.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Embedder is the opaque external capability that turns text into a
// fixed-dimension vector. Satisfied by the Genkit adapter in production and
// by fakes in tests.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// genkitEmbedder adapts a Genkit ai.Embedder to the Embedder capability.
type genkitEmbedder struct {
	embedder ai.Embedder
}

// NewGenkitEmbedder wraps a Genkit embedder. The returned Embedder does not
// normalize; callers normalize explicitly so build and query paths share one
// code path.
func NewGenkitEmbedder(embedder ai.Embedder) Embedder {
	return &genkitEmbedder{embedder: embedder}
}

func (g *genkitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	}

	resp, err := g.embedder.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return resp.Embeddings[0].Embedding, nil
}

// l2Normalize scales v to unit length in place and returns it. A zero
// vector is returned unchanged rather than dividing by zero.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

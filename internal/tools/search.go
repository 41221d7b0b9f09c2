package tools

import (
	"context"
	"fmt"
)

// DefaultTopK is the result count used when a search request leaves top_k
// unset.
const DefaultTopK = 10

// SearchKPIsInput defines input for search_kpis.
type SearchKPIsInput struct {
	Query    string   `json:"query" jsonschema_description:"Free-text description of the statistic to find, e.g. 'andel behöriga till gymnasiet'. Swedish works best."`
	TopK     int      `json:"top_k,omitempty" jsonschema_description:"Maximum number of matches to return. Defaults to 10."`
	MinScore *float64 `json:"min_score,omitempty" jsonschema_description:"Optional similarity floor in [-1, 1]; matches scoring below it are dropped."`
}

// SearchKPIs ranks indicators by embedding similarity to the query.
func (k *Kit) SearchKPIs(ctx context.Context, input SearchKPIsInput) (Result, error) {
	rid := requestID()
	k.logger.Info("SearchKPIs called", "request_id", rid, "query", input.Query, "top_k", input.TopK)

	topK := input.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	matches, err := k.searcher.Search(ctx, input.Query, topK, input.MinScore)
	if err != nil {
		return Result{
			Status:    StatusError,
			Message:   "search failed",
			RequestID: rid,
			Error: &Error{
				Code:    classifyError(err),
				Message: err.Error(),
			},
		}, nil
	}

	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("%d matches for %q", len(matches), input.Query),
		RequestID: rid,
		Data: map[string]any{
			"query":   input.Query,
			"matches": matches,
			"count":   len(matches),
		},
	}, nil
}

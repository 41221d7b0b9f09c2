// Package analysis turns raw observations into comparative statistics:
// per-municipality rankings, indicator comparisons (difference and Pearson
// correlation), and threshold filters.
//
// All functions are pure over their inputs; results are request-scoped and
// never cached. Missing values are excluded and counted, never treated as
// zero.
package analysis

import (
	"errors"
	"math"
	"sort"
)

// ErrInsufficientData indicates too few paired observations for a
// correlation.
var ErrInsufficientData = errors.New("insufficient data")

// Sort directions for rankings and comparisons.
const (
	DirectionAscending  = "asc"
	DirectionDescending = "desc"
)

// MinCorrelationSamples is the smallest paired-sample count accepted for a
// Pearson correlation.
const MinCorrelationSamples = 3

// Value is one municipality's observation for an indicator and period. A
// nil Value marks a genuinely missing observation.
type Value struct {
	MunicipalityID   string
	MunicipalityName string
	Period           int
	Value            *float64
}

// RankedValue is one row of a ranking.
type RankedValue struct {
	MunicipalityID   string  `json:"municipality_id"`
	MunicipalityName string  `json:"municipality_name"`
	Period           int     `json:"period"`
	Value            float64 `json:"value"`
	Rank             int     `json:"rank"`
}

// Stats summarizes the included values of a ranking. StdDev uses the
// population formula (divide by n, not n-1).
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// RankingResult is the outcome of ranking one indicator across
// municipalities.
type RankingResult struct {
	Direction                 string        `json:"direction"`
	Ranked                    []RankedValue `json:"ranked"`
	MunicipalitiesWithoutData []string      `json:"municipalities_without_data"`
	Stats                     Stats         `json:"statistics"`
}

// Rank orders municipalities by value and assigns competition ranks: equal
// values share a rank and the next distinct value's rank equals the number
// of entries ranked so far plus one. Direction "asc" (default) ranks the
// smallest value first; "desc" the largest. Municipalities with a missing
// value are excluded from the ranking and reported separately. A positive
// limit truncates the ranked list after rank assignment.
func Rank(values []Value, direction string, limit int) RankingResult {
	if direction != DirectionDescending {
		direction = DirectionAscending
	}

	included := make([]Value, 0, len(values))
	var withoutData []string
	for _, v := range values {
		if v.Value == nil {
			withoutData = append(withoutData, v.MunicipalityID)
			continue
		}
		included = append(included, v)
	}
	sort.Strings(withoutData)

	sort.SliceStable(included, func(i, j int) bool {
		a, b := *included[i].Value, *included[j].Value
		if a != b {
			if direction == DirectionDescending {
				return a > b
			}
			return a < b
		}
		return included[i].MunicipalityID < included[j].MunicipalityID
	})

	ranked := make([]RankedValue, len(included))
	for i, v := range included {
		rank := i + 1
		if i > 0 && *v.Value == ranked[i-1].Value {
			rank = ranked[i-1].Rank
		}
		ranked[i] = RankedValue{
			MunicipalityID:   v.MunicipalityID,
			MunicipalityName: v.MunicipalityName,
			Period:           v.Period,
			Value:            *v.Value,
			Rank:             rank,
		}
	}

	stats := computeStats(included)

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return RankingResult{
		Direction:                 direction,
		Ranked:                    ranked,
		MunicipalitiesWithoutData: withoutData,
		Stats:                     stats,
	}
}

func computeStats(values []Value) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}

	xs := make([]float64, n)
	var sum float64
	for i, v := range values {
		xs[i] = *v.Value
		sum += xs[i]
	}
	sort.Float64s(xs)

	mean := sum / float64(n)

	var sqsum float64
	for _, x := range xs {
		d := x - mean
		sqsum += d * d
	}

	var median float64
	if n%2 == 1 {
		median = xs[n/2]
	} else {
		median = (xs[n/2-1] + xs[n/2]) / 2
	}

	return Stats{
		Count:  n,
		Mean:   mean,
		Median: median,
		Min:    xs[0],
		Max:    xs[n-1],
		StdDev: math.Sqrt(sqsum / float64(n)),
	}
}

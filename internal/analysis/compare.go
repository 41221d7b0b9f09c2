package analysis

import (
	"fmt"
	"math"
	"sort"
)

// Comparison modes.
const (
	ModeDifference  = "difference"
	ModeCorrelation = "correlation"
)

// Pair holds one municipality's values for two indicators in the same
// period; either side may be missing.
type Pair struct {
	MunicipalityID   string
	MunicipalityName string
	A                *float64
	B                *float64
}

// DifferenceEntry is one row of a difference comparison.
type DifferenceEntry struct {
	MunicipalityID   string  `json:"municipality_id"`
	MunicipalityName string  `json:"municipality_name"`
	ValueA           float64 `json:"value_a"`
	ValueB           float64 `json:"value_b"`
	Difference       float64 `json:"difference"`
}

// ComparisonResult carries the indicator ids and period used so callers can
// detect mismatched requests downstream. Exactly one of Differences or
// Correlation is populated, per Mode.
type ComparisonResult struct {
	Mode        string            `json:"mode"`
	KPIA        string            `json:"kpi_a"`
	KPIB        string            `json:"kpi_b"`
	Period      int               `json:"period"`
	Differences []DifferenceEntry `json:"differences,omitempty"`
	Correlation *float64          `json:"correlation,omitempty"`
	SampleSize  int               `json:"sample_size"`
	Excluded    int               `json:"excluded_municipalities"`
}

// Compare evaluates two indicators across municipalities. In "difference"
// mode each municipality with both values present contributes a - b;
// municipalities missing either value are excluded and counted. In
// "correlation" mode the Pearson coefficient is computed over the paired
// values; fewer than MinCorrelationSamples pairs is ErrInsufficientData.
func Compare(pairs []Pair, mode, kpiA, kpiB string, period int) (ComparisonResult, error) {
	complete := make([]Pair, 0, len(pairs))
	excluded := 0
	for _, p := range pairs {
		if p.A == nil || p.B == nil {
			excluded++
			continue
		}
		complete = append(complete, p)
	}
	sort.Slice(complete, func(i, j int) bool {
		return complete[i].MunicipalityID < complete[j].MunicipalityID
	})

	result := ComparisonResult{
		Mode:       mode,
		KPIA:       kpiA,
		KPIB:       kpiB,
		Period:     period,
		SampleSize: len(complete),
		Excluded:   excluded,
	}

	switch mode {
	case ModeDifference:
		result.Differences = make([]DifferenceEntry, len(complete))
		for i, p := range complete {
			result.Differences[i] = DifferenceEntry{
				MunicipalityID:   p.MunicipalityID,
				MunicipalityName: p.MunicipalityName,
				ValueA:           *p.A,
				ValueB:           *p.B,
				Difference:       *p.A - *p.B,
			}
		}
		return result, nil

	case ModeCorrelation:
		if len(complete) < MinCorrelationSamples {
			return ComparisonResult{}, fmt.Errorf("%w: %d paired observations, need at least %d",
				ErrInsufficientData, len(complete), MinCorrelationSamples)
		}
		r, err := pearson(complete)
		if err != nil {
			return ComparisonResult{}, err
		}
		result.Correlation = &r
		return result, nil

	default:
		return ComparisonResult{}, fmt.Errorf("unknown comparison mode %q", mode)
	}
}

// pearson computes the correlation coefficient, clamped to [-1, 1] to guard
// against floating-point overshoot. Zero variance on either side is
// ErrInsufficientData: the coefficient is undefined.
func pearson(pairs []Pair) (float64, error) {
	n := float64(len(pairs))

	var sumA, sumB float64
	for _, p := range pairs {
		sumA += *p.A
		sumB += *p.B
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for _, p := range pairs {
		da, db := *p.A-meanA, *p.B-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0, fmt.Errorf("%w: zero variance, correlation undefined", ErrInsufficientData)
	}

	r := cov / math.Sqrt(varA*varB)
	return math.Max(-1, math.Min(1, r)), nil
}

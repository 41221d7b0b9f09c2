package tools

import (
	"context"
	"fmt"

	"github.com/ekdahl/kolada-mcp/internal/analysis"
)

// AnalyzeKPIInput defines input for analyze_kpi_across_municipalities.
type AnalyzeKPIInput struct {
	KPIID           string   `json:"kpi_id" jsonschema_description:"The Kolada KPI id to analyze."`
	Year            int      `json:"year,omitempty" jsonschema_description:"The period to analyze. Omit for each municipality's latest available year."`
	MunicipalityIDs []string `json:"municipality_ids,omitempty" jsonschema_description:"Optional subset of municipality ids. Empty means all municipalities."`
	Gender          string   `json:"gender,omitempty" jsonschema_description:"Gender dimension: 'T' total (default), 'M' men, 'K' women."`
	Direction       string   `json:"direction,omitempty" jsonschema_description:"Rank order: 'asc' puts the smallest value first (default), 'desc' the largest."`
	Limit           int      `json:"limit,omitempty" jsonschema_description:"Optional cap on the number of ranked rows returned."`
}

// CompareKPIsInput defines input for compare_kpis.
type CompareKPIsInput struct {
	KPIA            string   `json:"kpi_a" jsonschema_description:"First Kolada KPI id."`
	KPIB            string   `json:"kpi_b" jsonschema_description:"Second Kolada KPI id."`
	Year            int      `json:"year" jsonschema_description:"The period to compare. Required so both indicators are read from the same year."`
	Mode            string   `json:"mode" jsonschema_description:"'difference' for per-municipality value_a - value_b, 'correlation' for the Pearson coefficient."`
	MunicipalityIDs []string `json:"municipality_ids,omitempty" jsonschema_description:"Optional subset of municipality ids. Empty means all municipalities."`
	Gender          string   `json:"gender,omitempty" jsonschema_description:"Gender dimension: 'T' total (default), 'M' men, 'K' women."`
}

// FilterMunicipalitiesByKPIInput defines input for
// filter_municipalities_by_kpi.
type FilterMunicipalitiesByKPIInput struct {
	KPIID     string  `json:"kpi_id" jsonschema_description:"The Kolada KPI id to filter on."`
	Year      int     `json:"year,omitempty" jsonschema_description:"The period to filter on. Omit for each municipality's latest available year."`
	Threshold float64 `json:"threshold" jsonschema_description:"The threshold value to compare against."`
	Direction string  `json:"direction" jsonschema_description:"'above' (strictly greater), 'below' (strictly less) or 'equal'."`
	Gender    string  `json:"gender,omitempty" jsonschema_description:"Gender dimension: 'T' total (default), 'M' men, 'K' women."`
}

// AnalyzeKPI ranks municipalities on one indicator with competition
// ranking and summary statistics. Municipalities without a value are
// reported separately, never ranked as zero.
func (k *Kit) AnalyzeKPI(ctx context.Context, input AnalyzeKPIInput) (Result, error) {
	rid := requestID()
	k.logger.Info("AnalyzeKPI called",
		"request_id", rid, "kpi_id", input.KPIID, "year", input.Year,
		"direction", input.Direction)

	kpi, err := k.requireKPI(input.KPIID)
	if err != nil {
		return errorResult(rid, "KPI lookup failed", err), nil
	}

	munIDs, err := k.resolveMunicipalities(input.MunicipalityIDs)
	if err != nil {
		return errorResult(rid, "municipality lookup failed", err), nil
	}

	values, err := k.valuesFor(ctx, input.KPIID, munIDs, input.Gender, input.Year)
	if err != nil {
		return errorResult(rid, "upstream fetch failed", err), nil
	}

	ranking := analysis.Rank(values, input.Direction, input.Limit)

	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("ranked %d municipalities on %s", len(ranking.Ranked), input.KPIID),
		RequestID: rid,
		Data: map[string]any{
			"kpi_id":    kpi.ID,
			"kpi_title": kpi.Title,
			"unit":      kpi.Unit,
			"year":      input.Year,
			"ranking":   ranking,
		},
	}, nil
}

// CompareKPIs compares two indicators across municipalities in one period,
// as a per-municipality difference series or a Pearson correlation.
func (k *Kit) CompareKPIs(ctx context.Context, input CompareKPIsInput) (Result, error) {
	rid := requestID()
	k.logger.Info("CompareKPIs called",
		"request_id", rid, "kpi_a", input.KPIA, "kpi_b", input.KPIB,
		"year", input.Year, "mode", input.Mode)

	if input.Year <= 0 {
		return Result{
			Status:    StatusError,
			Message:   "year is required",
			RequestID: rid,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "a comparison needs an explicit year so both indicators are read from the same period",
			},
		}, nil
	}

	if _, err := k.requireKPI(input.KPIA); err != nil {
		return errorResult(rid, "KPI lookup failed", err), nil
	}
	if _, err := k.requireKPI(input.KPIB); err != nil {
		return errorResult(rid, "KPI lookup failed", err), nil
	}

	munIDs, err := k.resolveMunicipalities(input.MunicipalityIDs)
	if err != nil {
		return errorResult(rid, "municipality lookup failed", err), nil
	}

	years := []int{input.Year}
	obsA, err := k.observations.Get(ctx, input.KPIA, munIDs, years)
	if err != nil {
		return errorResult(rid, "upstream fetch failed", err), nil
	}
	obsB, err := k.observations.Get(ctx, input.KPIB, munIDs, years)
	if err != nil {
		return errorResult(rid, "upstream fetch failed", err), nil
	}

	pairs := analysis.PairValues(obsA, obsB, input.Gender, input.Year, k.catalog.MunicipalityName)
	comparison, err := analysis.Compare(pairs, input.Mode, input.KPIA, input.KPIB, input.Year)
	if err != nil {
		return errorResult(rid, "comparison failed", err), nil
	}

	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("compared %s and %s over %d municipalities", input.KPIA, input.KPIB, comparison.SampleSize),
		RequestID: rid,
		Data:      comparison,
	}, nil
}

// FilterMunicipalitiesByKPI returns the municipalities whose value
// satisfies the threshold predicate. Absent values never satisfy any
// direction.
func (k *Kit) FilterMunicipalitiesByKPI(ctx context.Context, input FilterMunicipalitiesByKPIInput) (Result, error) {
	rid := requestID()
	k.logger.Info("FilterMunicipalitiesByKPI called",
		"request_id", rid, "kpi_id", input.KPIID, "year", input.Year,
		"threshold", input.Threshold, "direction", input.Direction)

	if _, err := k.requireKPI(input.KPIID); err != nil {
		return errorResult(rid, "KPI lookup failed", err), nil
	}

	munIDs, err := k.resolveMunicipalities(nil)
	if err != nil {
		return errorResult(rid, "municipality lookup failed", err), nil
	}

	values, err := k.valuesFor(ctx, input.KPIID, munIDs, input.Gender, input.Year)
	if err != nil {
		return errorResult(rid, "upstream fetch failed", err), nil
	}

	matches, err := analysis.Filter(values, input.Threshold, input.Direction)
	if err != nil {
		return Result{
			Status:    StatusError,
			Message:   "invalid filter",
			RequestID: rid,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: err.Error(),
			},
		}, nil
	}

	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("%d municipalities match", len(matches)),
		RequestID: rid,
		Data: map[string]any{
			"kpi_id":    input.KPIID,
			"year":      input.Year,
			"threshold": input.Threshold,
			"direction": input.Direction,
			"matches":   matches,
			"count":     len(matches),
		},
	}, nil
}

// valuesFor fetches observations and collapses them to one value per
// municipality. Municipalities that produced no observation at all are
// carried as missing so rankings can report them.
func (k *Kit) valuesFor(ctx context.Context, kpiID string, munIDs []string, gender string, year int) ([]analysis.Value, error) {
	var years []int
	if year > 0 {
		years = []int{year}
	}

	obs, err := k.observations.Get(ctx, kpiID, munIDs, years)
	if err != nil {
		return nil, err
	}

	values := analysis.Values(obs, gender, year, k.catalog.MunicipalityName)

	present := make(map[string]bool, len(values))
	for _, v := range values {
		present[v.MunicipalityID] = true
	}
	for _, id := range munIDs {
		if !present[id] {
			values = append(values, analysis.Value{
				MunicipalityID:   id,
				MunicipalityName: k.catalog.MunicipalityName(id),
				Period:           year,
			})
		}
	}
	return values, nil
}

package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
)

// Tool names registered with the MCP server.
const (
	ListOperatingAreasName        = "list_operating_areas"
	KPIsByOperatingAreaName       = "get_kpis_by_operating_area"
	KPIMetadataName               = "get_kpi_metadata"
	ListMunicipalitiesName        = "list_municipalities"
	SearchKPIsName                = "search_kpis"
	FetchDataName                 = "fetch_kolada_data"
	AnalyzeKPIName                = "analyze_kpi_across_municipalities"
	CompareKPIsName               = "compare_kpis"
	FilterMunicipalitiesByKPIName = "filter_municipalities_by_kpi"
)

// ListOperatingAreasInput defines input for list_operating_areas (none
// needed).
type ListOperatingAreasInput struct{}

// KPIsByOperatingAreaInput defines input for get_kpis_by_operating_area.
type KPIsByOperatingAreaInput struct {
	OperatingArea string `json:"operating_area" jsonschema_description:"The operating area name, e.g. 'Utbildning'. Case-insensitive."`
}

// KPIMetadataInput defines input for get_kpi_metadata.
type KPIMetadataInput struct {
	KPIID string `json:"kpi_id" jsonschema_description:"The Kolada KPI id, e.g. 'N00945'."`
}

// ListMunicipalitiesInput defines input for list_municipalities.
type ListMunicipalitiesInput struct {
	Type string `json:"municipality_type,omitempty" jsonschema_description:"Optional filter: 'K' for municipalities, 'R' for regions, 'L' for county councils. Empty returns all."`
}

// ListOperatingAreas enumerates operating areas with their indicator
// counts, largest area first.
func (k *Kit) ListOperatingAreas(_ context.Context, _ ListOperatingAreasInput) (Result, error) {
	rid := requestID()
	k.logger.Info("ListOperatingAreas called", "request_id", rid)

	areas := k.catalog.OperatingAreas()
	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("%d operating areas", len(areas)),
		RequestID: rid,
		Data: map[string]any{
			"operating_areas": areas,
			"total_kpis":      k.catalog.KPICount(),
		},
	}, nil
}

// KPIsByOperatingArea lists the indicators in one operating area. An
// unknown area is an empty list, not an error.
func (k *Kit) KPIsByOperatingArea(_ context.Context, input KPIsByOperatingAreaInput) (Result, error) {
	rid := requestID()
	k.logger.Info("KPIsByOperatingArea called", "request_id", rid, "operating_area", input.OperatingArea)

	kpis := k.catalog.KPIsByOperatingArea(input.OperatingArea)
	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("%d KPIs in operating area %q", len(kpis), input.OperatingArea),
		RequestID: rid,
		Data: map[string]any{
			"operating_area": input.OperatingArea,
			"kpis":           kpis,
			"count":          len(kpis),
		},
	}, nil
}

// KPIMetadata returns full metadata for one indicator id. Id equality is
// exact; no partial matches.
func (k *Kit) KPIMetadata(_ context.Context, input KPIMetadataInput) (Result, error) {
	rid := requestID()
	k.logger.Info("KPIMetadata called", "request_id", rid, "kpi_id", input.KPIID)

	kpi, err := k.catalog.KPI(input.KPIID)
	if err != nil {
		return Result{
			Status:    StatusError,
			Message:   fmt.Sprintf("KPI not found: %s", input.KPIID),
			RequestID: rid,
			Error: &Error{
				Code:    classifyError(err),
				Message: err.Error(),
				Details: map[string]any{"kpi_id": input.KPIID},
			},
		}, nil
	}

	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("KPI %s: %s", kpi.ID, kpi.Title),
		RequestID: rid,
		Data:      kpi,
	}, nil
}

// ListMunicipalities lists municipalities, optionally filtered by type.
func (k *Kit) ListMunicipalities(_ context.Context, input ListMunicipalitiesInput) (Result, error) {
	rid := requestID()
	k.logger.Info("ListMunicipalities called", "request_id", rid, "municipality_type", input.Type)

	switch input.Type {
	case "", catalog.TypeMunicipality, catalog.TypeRegion, catalog.TypeCounty:
	default:
		return Result{
			Status:    StatusError,
			Message:   fmt.Sprintf("unknown municipality type %q", input.Type),
			RequestID: rid,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("municipality type must be %q, %q or %q", catalog.TypeMunicipality, catalog.TypeRegion, catalog.TypeCounty),
				Details: map[string]any{"municipality_type": input.Type},
			},
		}, nil
	}

	muns := k.catalog.Municipalities(input.Type)
	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("%d municipalities", len(muns)),
		RequestID: rid,
		Data: map[string]any{
			"municipalities": muns,
			"count":          len(muns),
		},
	}, nil
}

// resolveMunicipalities returns the municipality ids an analysis operates
// on: the validated explicit subset if given, otherwise every municipality
// proper (type K).
func (k *Kit) resolveMunicipalities(ids []string) ([]string, error) {
	if len(ids) == 0 {
		muns := k.catalog.Municipalities(catalog.TypeMunicipality)
		all := make([]string, len(muns))
		for i, m := range muns {
			all[i] = m.ID
		}
		return all, nil
	}

	for _, id := range ids {
		if !k.catalog.HasMunicipality(id) {
			return nil, fmt.Errorf("municipality %s: %w", id, catalog.ErrNotFound)
		}
	}
	return ids, nil
}

// requireKPI looks up an indicator, wrapping the id into the error.
func (k *Kit) requireKPI(id string) (catalog.KPI, error) {
	kpi, err := k.catalog.KPI(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.KPI{}, fmt.Errorf("kpi %s: %w", id, catalog.ErrNotFound)
		}
		return catalog.KPI{}, err
	}
	return kpi, nil
}

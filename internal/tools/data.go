package tools

import (
	"context"
	"fmt"
)

// FetchDataInput defines input for fetch_kolada_data.
type FetchDataInput struct {
	KPIID           string   `json:"kpi_id" jsonschema_description:"The Kolada KPI id to fetch observations for."`
	MunicipalityIDs []string `json:"municipality_ids,omitempty" jsonschema_description:"Municipality ids to fetch. Empty means every municipality."`
	Years           []int    `json:"years,omitempty" jsonschema_description:"Years to fetch. Empty means all available years."`
	Gender          string   `json:"gender,omitempty" jsonschema_description:"Optional gender dimension filter: 'T' total, 'M' men, 'K' women. Empty returns all three."`
}

// DataRow is one observation as returned to the caller, with the
// municipality name resolved.
type DataRow struct {
	MunicipalityID   string   `json:"municipality_id"`
	MunicipalityName string   `json:"municipality_name"`
	Period           int      `json:"period"`
	Gender           string   `json:"gender"`
	Value            *float64 `json:"value"`
}

// FetchData is the raw pass-through: it proxies the observation cache with
// no analysis applied. Absent values come back as null, never zero.
func (k *Kit) FetchData(ctx context.Context, input FetchDataInput) (Result, error) {
	rid := requestID()
	k.logger.Info("FetchData called",
		"request_id", rid, "kpi_id", input.KPIID,
		"municipalities", len(input.MunicipalityIDs), "years", input.Years)

	if _, err := k.requireKPI(input.KPIID); err != nil {
		return errorResult(rid, "KPI lookup failed", err), nil
	}

	munIDs, err := k.resolveMunicipalities(input.MunicipalityIDs)
	if err != nil {
		return errorResult(rid, "municipality lookup failed", err), nil
	}

	obs, err := k.observations.Get(ctx, input.KPIID, munIDs, input.Years)
	if err != nil {
		return errorResult(rid, "upstream fetch failed", err), nil
	}

	rows := make([]DataRow, 0, len(obs))
	for _, o := range obs {
		if input.Gender != "" && o.Gender != input.Gender {
			continue
		}
		rows = append(rows, DataRow{
			MunicipalityID:   o.MunicipalityID,
			MunicipalityName: k.catalog.MunicipalityName(o.MunicipalityID),
			Period:           o.Period,
			Gender:           o.Gender,
			Value:            o.Value,
		})
	}

	return Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("%d observations for %s", len(rows), input.KPIID),
		RequestID: rid,
		Data: map[string]any{
			"kpi_id":       input.KPIID,
			"observations": rows,
			"count":        len(rows),
		},
	}, nil
}

// errorResult wraps a domain error into the envelope. The fetch and
// analysis handlers share it; catalog handlers with richer per-branch
// details build their envelopes inline.
func errorResult(rid, message string, err error) Result {
	return Result{
		Status:    StatusError,
		Message:   message,
		RequestID: rid,
		Error: &Error{
			Code:    classifyError(err),
			Message: err.Error(),
		},
	}
}

package analysis

import (
	"github.com/ekdahl/kolada-mcp/internal/kolada"
)

// GenderTotal is the default gender dimension: aggregate over everyone.
const GenderTotal = "T"

// NameResolver maps a municipality id to its display name. The catalog's
// MunicipalityName satisfies it.
type NameResolver func(municipalityID string) string

// Values collapses observations into one Value per municipality for the
// requested gender and period. With period 0 the latest period that has any
// observation for the municipality is used (the Kolada convention when no
// year is requested). Municipalities present in the observations but with a
// nil value for the selected period keep that nil so rankings can report
// them as missing.
func Values(obs []kolada.Observation, gender string, period int, names NameResolver) []Value {
	if gender == "" {
		gender = GenderTotal
	}

	// municipality -> best observation seen so far
	selected := make(map[string]kolada.Observation)
	var order []string

	for _, o := range obs {
		if o.Gender != gender {
			continue
		}
		if period > 0 && o.Period != period {
			continue
		}
		prev, seen := selected[o.MunicipalityID]
		if !seen {
			selected[o.MunicipalityID] = o
			order = append(order, o.MunicipalityID)
			continue
		}
		if period == 0 && o.Period > prev.Period {
			selected[o.MunicipalityID] = o
		}
	}

	values := make([]Value, 0, len(order))
	for _, id := range order {
		o := selected[id]
		values = append(values, Value{
			MunicipalityID:   id,
			MunicipalityName: names(id),
			Period:           o.Period,
			Value:            o.Value,
		})
	}
	return values
}

// PairValues joins two indicators' observations into per-municipality
// pairs for one period. A municipality appearing in either side appears in
// the result; missing sides stay nil for Compare to exclude and count.
func PairValues(obsA, obsB []kolada.Observation, gender string, period int, names NameResolver) []Pair {
	valsA := Values(obsA, gender, period, names)
	valsB := Values(obsB, gender, period, names)

	byID := make(map[string]*Pair)
	var order []string

	for _, v := range valsA {
		byID[v.MunicipalityID] = &Pair{
			MunicipalityID:   v.MunicipalityID,
			MunicipalityName: v.MunicipalityName,
			A:                v.Value,
		}
		order = append(order, v.MunicipalityID)
	}
	for _, v := range valsB {
		p, ok := byID[v.MunicipalityID]
		if !ok {
			p = &Pair{MunicipalityID: v.MunicipalityID, MunicipalityName: v.MunicipalityName}
			byID[v.MunicipalityID] = p
			order = append(order, v.MunicipalityID)
		}
		p.B = v.Value
	}

	pairs := make([]Pair, 0, len(order))
	for _, id := range order {
		pairs = append(pairs, *byID[id])
	}
	return pairs
}

package analysis

import (
	"fmt"
	"sort"
)

// Filter directions.
const (
	FilterAbove = "above"
	FilterBelow = "below"
	FilterEqual = "equal"
)

// FilterMatch is one municipality satisfying a threshold predicate.
type FilterMatch struct {
	MunicipalityID   string  `json:"municipality_id"`
	MunicipalityName string  `json:"municipality_name"`
	Period           int     `json:"period"`
	Value            float64 `json:"value"`
}

// Filter returns the municipalities whose value satisfies the predicate,
// sorted by municipality id. Municipalities with a missing value never
// satisfy any direction.
func Filter(values []Value, threshold float64, direction string) ([]FilterMatch, error) {
	var pred func(float64) bool
	switch direction {
	case FilterAbove:
		pred = func(v float64) bool { return v > threshold }
	case FilterBelow:
		pred = func(v float64) bool { return v < threshold }
	case FilterEqual:
		pred = func(v float64) bool { return v == threshold }
	default:
		return nil, fmt.Errorf("unknown filter direction %q", direction)
	}

	var matches []FilterMatch
	for _, v := range values {
		if v.Value == nil || !pred(*v.Value) {
			continue
		}
		matches = append(matches, FilterMatch{
			MunicipalityID:   v.MunicipalityID,
			MunicipalityName: v.MunicipalityName,
			Period:           v.Period,
			Value:            *v.Value,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].MunicipalityID < matches[j].MunicipalityID
	})
	return matches, nil
}

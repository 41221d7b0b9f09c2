package analysis

import (
	"math"
	"slices"
	"testing"
)

func value(v float64) *float64 { return &v }

func TestRankCompetitionRanking(t *testing.T) {
	values := []Value{
		{MunicipalityID: "A", MunicipalityName: "Alvesta", Period: 2023, Value: value(10)},
		{MunicipalityID: "B", MunicipalityName: "Borås", Period: 2023, Value: value(20)},
		{MunicipalityID: "C", MunicipalityName: "Cirka", Period: 2023, Value: value(10)},
		{MunicipalityID: "D", MunicipalityName: "Dorotea", Period: 2023, Value: nil},
	}

	result := Rank(values, DirectionAscending, 0)

	if len(result.Ranked) != 3 {
		t.Fatalf("got %d ranked, want 3", len(result.Ranked))
	}

	// Competition ranking: A=1, C=1 (tied), B=3.
	wantRanks := map[string]int{"A": 1, "C": 1, "B": 3}
	for _, r := range result.Ranked {
		if want := wantRanks[r.MunicipalityID]; r.Rank != want {
			t.Errorf("rank(%s) = %d, want %d", r.MunicipalityID, r.Rank, want)
		}
	}

	// Tied values order by ascending municipality id.
	if result.Ranked[0].MunicipalityID != "A" || result.Ranked[1].MunicipalityID != "C" {
		t.Errorf("tie order = %s,%s, want A,C", result.Ranked[0].MunicipalityID, result.Ranked[1].MunicipalityID)
	}

	if !slices.Equal(result.MunicipalitiesWithoutData, []string{"D"}) {
		t.Errorf("MunicipalitiesWithoutData = %v, want [D]", result.MunicipalitiesWithoutData)
	}

	// Stats computed only over {10, 20, 10}.
	if result.Stats.Count != 3 {
		t.Errorf("Count = %d, want 3", result.Stats.Count)
	}
	if math.Abs(result.Stats.Mean-13.333333) > 1e-5 {
		t.Errorf("Mean = %f, want 13.3333", result.Stats.Mean)
	}
	if result.Stats.Median != 10 {
		t.Errorf("Median = %f, want 10", result.Stats.Median)
	}
	if result.Stats.Min != 10 || result.Stats.Max != 20 {
		t.Errorf("Min/Max = %f/%f, want 10/20", result.Stats.Min, result.Stats.Max)
	}
	// Population standard deviation: sqrt(200/9 ... ) over n, not n-1.
	if math.Abs(result.Stats.StdDev-4.714045) > 1e-5 {
		t.Errorf("StdDev = %f, want 4.714045 (population)", result.Stats.StdDev)
	}
}

func TestRankDescending(t *testing.T) {
	values := []Value{
		{MunicipalityID: "A", Value: value(10)},
		{MunicipalityID: "B", Value: value(20)},
		{MunicipalityID: "C", Value: value(15)},
	}

	result := Rank(values, DirectionDescending, 0)

	wantOrder := []string{"B", "C", "A"}
	for i, want := range wantOrder {
		if result.Ranked[i].MunicipalityID != want {
			t.Errorf("Ranked[%d] = %s, want %s", i, result.Ranked[i].MunicipalityID, want)
		}
		if result.Ranked[i].Rank != i+1 {
			t.Errorf("Ranked[%d].Rank = %d, want %d", i, result.Ranked[i].Rank, i+1)
		}
	}
}

func TestRankDefaultsToAscending(t *testing.T) {
	values := []Value{
		{MunicipalityID: "A", Value: value(2)},
		{MunicipalityID: "B", Value: value(1)},
	}

	result := Rank(values, "", 0)
	if result.Direction != DirectionAscending {
		t.Errorf("Direction = %q, want asc", result.Direction)
	}
	if result.Ranked[0].MunicipalityID != "B" {
		t.Errorf("Ranked[0] = %s, want B (smallest first)", result.Ranked[0].MunicipalityID)
	}
}

func TestRankLimitAfterStats(t *testing.T) {
	values := []Value{
		{MunicipalityID: "A", Value: value(1)},
		{MunicipalityID: "B", Value: value(2)},
		{MunicipalityID: "C", Value: value(3)},
	}

	result := Rank(values, DirectionAscending, 2)
	if len(result.Ranked) != 2 {
		t.Fatalf("got %d ranked, want 2 (limit)", len(result.Ranked))
	}
	// Statistics cover all included values, not just the truncated list.
	if result.Stats.Count != 3 {
		t.Errorf("Stats.Count = %d, want 3", result.Stats.Count)
	}
}

func TestRankEmpty(t *testing.T) {
	result := Rank(nil, DirectionAscending, 0)
	if len(result.Ranked) != 0 || result.Stats.Count != 0 {
		t.Errorf("empty rank = %+v", result)
	}
}

func TestRankAllMissing(t *testing.T) {
	values := []Value{
		{MunicipalityID: "A", Value: nil},
		{MunicipalityID: "B", Value: nil},
	}
	result := Rank(values, DirectionAscending, 0)
	if len(result.Ranked) != 0 {
		t.Errorf("got %d ranked, want 0", len(result.Ranked))
	}
	if !slices.Equal(result.MunicipalitiesWithoutData, []string{"A", "B"}) {
		t.Errorf("MunicipalitiesWithoutData = %v", result.MunicipalitiesWithoutData)
	}
}

func TestMedianEvenCount(t *testing.T) {
	values := []Value{
		{MunicipalityID: "A", Value: value(1)},
		{MunicipalityID: "B", Value: value(2)},
		{MunicipalityID: "C", Value: value(3)},
		{MunicipalityID: "D", Value: value(10)},
	}
	result := Rank(values, DirectionAscending, 0)
	if result.Stats.Median != 2.5 {
		t.Errorf("Median = %f, want 2.5", result.Stats.Median)
	}
}

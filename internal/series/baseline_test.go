package series

import (
	"math"
	"testing"
	"time"
)

func makeSeasonal(entries []struct {
	season string
	temp   float64
}) Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(Series, len(entries))
	for i, e := range entries {
		s[i] = Record{
			City:        "Testville",
			Timestamp:   base.AddDate(0, 0, i),
			Temperature: e.temp,
			Season:      e.season,
		}
	}
	return s
}

func TestDominantSeasonMode(t *testing.T) {
	s := makeSeasonal([]struct {
		season string
		temp   float64
	}{
		{"winter", 0}, {"summer", 20}, {"winter", 1}, {"winter", -1}, {"summer", 22},
	})

	season, ok := DominantSeason(s)
	if !ok {
		t.Fatal("expected a dominant season")
	}
	if season != "winter" {
		t.Fatalf("expected winter, got %q", season)
	}
}

func TestDominantSeasonTieBreaksLexicographically(t *testing.T) {
	s := makeSeasonal([]struct {
		season string
		temp   float64
	}{
		{"winter", 0}, {"autumn", 10}, {"winter", 1}, {"autumn", 11},
	})

	season, ok := DominantSeason(s)
	if !ok {
		t.Fatal("expected a dominant season")
	}
	// Equal frequency: the lexicographically smaller label wins,
	// deterministically.
	if season != "autumn" {
		t.Fatalf("expected autumn on tie, got %q", season)
	}
}

func TestDominantSeasonEmpty(t *testing.T) {
	if _, ok := DominantSeason(nil); ok {
		t.Fatal("empty series must not yield a dominant season")
	}
}

func TestComputeBaselineValues(t *testing.T) {
	s := makeSeasonal([]struct {
		season string
		temp   float64
	}{
		{"summer", 18}, {"summer", 22}, {"winter", 0},
	})

	b, ok := ComputeBaseline(s, 2)
	if !ok {
		t.Fatal("expected a baseline")
	}
	if b.Season != "summer" {
		t.Fatalf("expected summer baseline, got %q", b.Season)
	}
	if b.Mean != 20 {
		t.Fatalf("expected mean 20, got %v", b.Mean)
	}
	// Sample std of {18, 22}: sqrt(((18-20)^2+(22-20)^2)/1) = sqrt(8).
	if math.Abs(b.Std-math.Sqrt(8)) > 1e-9 {
		t.Fatalf("expected std sqrt(8), got %v", b.Std)
	}
	if math.Abs(b.LowerBound-(20-2*math.Sqrt(8))) > 1e-9 {
		t.Fatalf("unexpected lower bound %v", b.LowerBound)
	}
}

func TestComputeBaselineEmptySeries(t *testing.T) {
	if _, ok := ComputeBaseline(nil, 2); ok {
		t.Fatal("empty series must not yield a baseline")
	}
}

func TestComputeBaselineNeedsTwoRecords(t *testing.T) {
	s := makeSeasonal([]struct {
		season string
		temp   float64
	}{
		{"summer", 18},
	})

	if _, ok := ComputeBaseline(s, 2); ok {
		t.Fatal("single-record season must not yield a baseline")
	}
}

func TestClassifyBoundaryInclusive(t *testing.T) {
	b := Baseline{
		Season:     "summer",
		Mean:       20,
		Std:        3,
		LowerBound: 14,
		UpperBound: 26,
	}

	if got := Classify(26, b); got != VerdictNormal {
		t.Fatalf("reading exactly on the upper bound should be normal, got %s", got)
	}
	if got := Classify(14, b); got != VerdictNormal {
		t.Fatalf("reading exactly on the lower bound should be normal, got %s", got)
	}
	if got := Classify(26.0001, b); got != VerdictAnomalous {
		t.Fatalf("reading just above the band should be anomalous, got %s", got)
	}
	if got := Classify(13.9999, b); got != VerdictAnomalous {
		t.Fatalf("reading just below the band should be anomalous, got %s", got)
	}
	if got := Classify(20, b); got != VerdictNormal {
		t.Fatalf("reading at the mean should be normal, got %s", got)
	}
}

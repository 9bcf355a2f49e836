package series

import "math"

// DominantSeason returns the statistical mode of the season column. Ties
// are broken deterministically by picking the lexicographically smallest
// of the most frequent seasons. Returns false for an empty series.
func DominantSeason(s Series) (string, bool) {
	if len(s) == 0 {
		return "", false
	}

	counts := make(map[string]int)
	for _, rec := range s {
		counts[rec.Season]++
	}

	var best string
	bestCount := 0
	for season, count := range counts {
		if count > bestCount || (count == bestCount && season < best) {
			bestCount = count
			best = season
		}
	}

	return best, true
}

// ComputeBaseline derives the seasonal reference distribution for a
// series: mean and unbiased standard deviation of temperature over the
// records belonging to the dominant season, with the classification band
// mean ± sigma·std. Returns false when the series is empty or the
// dominant-season subset has fewer than two records, since the sample
// standard deviation is undefined for N < 2. A sigma of zero or less
// falls back to DefaultSigma.
func ComputeBaseline(s Series, sigma float64) (Baseline, bool) {
	if sigma <= 0 {
		sigma = DefaultSigma
	}

	season, ok := DominantSeason(s)
	if !ok {
		return Baseline{}, false
	}

	var temps []float64
	for _, rec := range s {
		if rec.Season == season {
			temps = append(temps, rec.Temperature)
		}
	}
	if len(temps) < 2 {
		return Baseline{}, false
	}

	var sum float64
	for _, t := range temps {
		sum += t
	}
	mean := sum / float64(len(temps))

	var sqDiff float64
	for _, t := range temps {
		d := t - mean
		sqDiff += d * d
	}
	std := math.Sqrt(sqDiff / float64(len(temps)-1))

	return Baseline{
		Season:     season,
		Mean:       mean,
		Std:        std,
		LowerBound: mean - sigma*std,
		UpperBound: mean + sigma*std,
	}, true
}

// Classify compares a live temperature against a baseline band. The band
// is inclusive: a reading sitting exactly on a bound is Normal.
func Classify(tempC float64, b Baseline) Verdict {
	if tempC >= b.LowerBound && tempC <= b.UpperBound {
		return VerdictNormal
	}
	return VerdictAnomalous
}

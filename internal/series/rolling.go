package series

import "math"

// DefaultWindow is the trailing-window size used when callers do not
// specify one.
const DefaultWindow = 30

// DefaultSigma is the band width multiplier used when callers do not
// specify one.
const DefaultSigma = 2.0

// ComputeRollingStats computes, for each sample i, the mean and unbiased
// (N-1) standard deviation over the trailing window [i-W+1, i]. The first
// W-1 samples have no full window of history and keep nil statistics; if
// the window exceeds the series length every sample stays nil. A window
// of zero or less falls back to DefaultWindow.
//
// The input series is not mutated. Output order matches input order, so
// the caller must pass a chronologically sorted series (the loader
// guarantees this).
func ComputeRollingStats(s Series, window int) EnrichedSeries {
	if window <= 0 {
		window = DefaultWindow
	}

	es := make(EnrichedSeries, len(s))
	for i, rec := range s {
		es[i] = EnrichedPoint{Record: rec}
	}

	if window > len(s) {
		return es
	}

	// Running sums over the trailing window; the oldest sample drops out
	// as the window slides.
	var sum, sumSq float64
	for i, rec := range s {
		sum += rec.Temperature
		sumSq += rec.Temperature * rec.Temperature

		if i >= window {
			old := s[i-window].Temperature
			sum -= old
			sumSq -= old * old
		}

		if i < window-1 {
			continue
		}

		n := float64(window)
		mean := sum / n
		// Unbiased sample variance; clamp tiny negative values from
		// floating-point cancellation.
		variance := (sumSq - sum*sum/n) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		std := math.Sqrt(variance)

		es[i].RollingMean = &mean
		es[i].RollingStd = &std
	}

	return es
}

// DetectAnomalies derives the anomaly band upper/lower = mean ± sigma·std
// for every sample with defined rolling statistics and flags samples
// falling strictly outside the band. Samples without statistics keep nil
// bounds and are never flagged: a point cannot be classified before it
// has a full window of history. A sigma of zero or less falls back to
// DefaultSigma.
func DetectAnomalies(es EnrichedSeries, sigma float64) EnrichedSeries {
	if sigma <= 0 {
		sigma = DefaultSigma
	}

	out := make(EnrichedSeries, len(es))
	copy(out, es)

	for i := range out {
		p := &out[i]
		if p.RollingMean == nil || p.RollingStd == nil {
			p.UpperBound = nil
			p.LowerBound = nil
			p.Anomaly = false
			continue
		}

		upper := *p.RollingMean + sigma**p.RollingStd
		lower := *p.RollingMean - sigma**p.RollingStd
		p.UpperBound = &upper
		p.LowerBound = &lower
		p.Anomaly = p.Temperature > upper || p.Temperature < lower
	}

	return out
}

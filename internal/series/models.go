package series

import (
	"time"
)

// Record is a single historical temperature observation for a city.
type Record struct {
	City        string    `json:"city"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Season      string    `json:"season"`
}

// Series is the full observation history for one city, ordered by
// Timestamp ascending. The loader guarantees the ordering; consumers
// must not mutate it.
type Series []Record

// EnrichedPoint is a Record extended with trailing-window statistics and
// the anomaly band derived from them. The pointer fields are nil while
// fewer than a full window of history is available; they serialize as
// JSON null so chart consumers can leave the band unplotted.
type EnrichedPoint struct {
	Record

	RollingMean *float64 `json:"rollingMean"`
	RollingStd  *float64 `json:"rollingStd"`
	UpperBound  *float64 `json:"upperBound"`
	LowerBound  *float64 `json:"lowerBound"`
	Anomaly     bool     `json:"anomaly"`
}

// EnrichedSeries is the per-sample output of the rolling statistics and
// anomaly passes, parallel to the input Series.
type EnrichedSeries []EnrichedPoint

// Baseline is the seasonal reference distribution for a city: mean and
// unbiased standard deviation of temperature restricted to the dominant
// season, plus the band used for classifying live readings.
type Baseline struct {
	Season     string  `json:"season"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	LowerBound float64 `json:"lowerBound"`
	UpperBound float64 `json:"upperBound"`
}

// Verdict is the three-way outcome of comparing a live temperature
// against a seasonal baseline. Undetermined means no baseline could be
// computed and is deliberately distinct from Anomalous.
type Verdict string

const (
	VerdictNormal       Verdict = "normal"
	VerdictAnomalous    Verdict = "anomalous"
	VerdictUndetermined Verdict = "undetermined"
)

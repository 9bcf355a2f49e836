package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/temperature-anomaly-analysis/internal/fetch"
	"github.com/i474232898/temperature-anomaly-analysis/internal/series"
	"github.com/i474232898/temperature-anomaly-analysis/internal/store"
)

var (
	// ErrCityNotFound is returned when a dataset holds no series for the
	// requested city.
	ErrCityNotFound = errors.New("no series for requested city")
)

// Fetcher is the provider-client contract the service depends on.
type Fetcher interface {
	Current(ctx context.Context, city string, mode fetch.Mode) (fetch.Reading, error)
}

// ClassifiedReading is a live reading together with its verdict against
// the city's seasonal baseline. Baseline is nil when the verdict is
// undetermined.
type ClassifiedReading struct {
	City         string           `json:"city"`
	TemperatureC float64          `json:"temperatureC"`
	Verdict      series.Verdict   `json:"verdict"`
	Baseline     *series.Baseline `json:"baseline,omitempty"`
}

// Service ties the dataset store, the memoization cache and the provider
// client together for the HTTP layer and the scheduler.
type Service struct {
	store   *store.MemoryStore
	cache   *series.Cache
	fetcher Fetcher

	defaultWindow int
	defaultSigma  float64
}

// NewService creates a Service. Window and sigma are the defaults used
// when a caller does not override them per request.
func NewService(st *store.MemoryStore, fetcher Fetcher, window int, sigma float64) *Service {
	cache := series.NewCache()
	st.SetEvictHook(cache.Invalidate)

	return &Service{
		store:         st,
		cache:         cache,
		fetcher:       fetcher,
		defaultWindow: window,
		defaultSigma:  sigma,
	}
}

// DefaultWindow returns the configured rolling-window default.
func (s *Service) DefaultWindow() int { return s.defaultWindow }

// DefaultSigma returns the configured band width default.
func (s *Service) DefaultSigma() float64 { return s.defaultSigma }

// UploadDataset loads and validates CSV content and stores it as a new
// dataset. Loader errors (schema, parse) pass through untouched so the
// HTTP layer can map them to structured responses.
func (s *Service) UploadDataset(r io.Reader) (*store.Dataset, error) {
	cities, err := series.Load(r)
	if err != nil {
		return nil, err
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("csv contains no data rows")
	}
	return s.store.SaveDataset(cities), nil
}

// Anomalies returns the anomaly-annotated series for a city in a
// dataset. Zero window/sigma select the configured defaults. Results are
// memoized by (dataset, city, window, sigma).
func (s *Service) Anomalies(datasetID uuid.UUID, city string, window int, sigma float64) (series.EnrichedSeries, error) {
	if window <= 0 {
		window = s.defaultWindow
	}
	if sigma <= 0 {
		sigma = s.defaultSigma
	}

	ser, err := s.citySeries(datasetID, city)
	if err != nil {
		return nil, err
	}
	return s.cache.Enriched(datasetID, city, ser, window, sigma), nil
}

// Baseline returns the seasonal baseline for a city in a dataset, or
// ok=false when the series cannot support one.
func (s *Service) Baseline(datasetID uuid.UUID, city string, sigma float64) (series.Baseline, bool, error) {
	if sigma <= 0 {
		sigma = s.defaultSigma
	}

	ser, err := s.citySeries(datasetID, city)
	if err != nil {
		return series.Baseline{}, false, err
	}
	b, ok := s.cache.Baseline(datasetID, city, ser, sigma)
	return b, ok, nil
}

// ClassifyCurrent fetches the live temperature for a city and classifies
// it against the dataset's seasonal baseline. Fetch errors pass through
// typed; a missing baseline yields VerdictUndetermined, not an error.
// The outcome is appended to the city's verdict history.
func (s *Service) ClassifyCurrent(ctx context.Context, datasetID uuid.UUID, city string, mode fetch.Mode) (ClassifiedReading, error) {
	baseline, hasBaseline, err := s.Baseline(datasetID, city, 0)
	if err != nil {
		return ClassifiedReading{}, err
	}

	reading, err := s.fetcher.Current(ctx, city, mode)
	if err != nil {
		return ClassifiedReading{}, err
	}

	result := ClassifiedReading{
		City:         city,
		TemperatureC: reading.TemperatureC,
		Verdict:      series.VerdictUndetermined,
	}
	if hasBaseline {
		result.Verdict = series.Classify(reading.TemperatureC, baseline)
		result.Baseline = &baseline
	}

	s.store.AppendVerdict(store.VerdictEntry{
		City:         city,
		Timestamp:    time.Now().UTC(),
		TemperatureC: reading.TemperatureC,
		Season:       baseline.Season,
		Verdict:      result.Verdict,
	})

	return result, nil
}

// RefreshTracked classifies the current temperature of every tracked
// city against the most recent dataset. Cities absent from the dataset
// or failing to fetch are logged and skipped; partial success is fine.
func (s *Service) RefreshTracked(ctx context.Context, cities []string) {
	latest, err := s.store.Latest()
	if err != nil {
		log.Printf("monitor: no dataset uploaded yet; skipping refresh")
		return
	}

	for _, city := range cities {
		if _, ok := latest.Cities[city]; !ok {
			log.Printf("monitor: city %s not present in latest dataset; skipping", city)
			continue
		}

		result, err := s.ClassifyCurrent(ctx, latest.ID, city, fetch.ModeConcurrent)
		if err != nil {
			log.Printf("monitor: refresh failed for %s: %v", city, err)
			continue
		}
		log.Printf("monitor: %s currently %.1f°C, verdict %s", city, result.TemperatureC, result.Verdict)
	}
}

// Verdicts returns the classification history for a city.
func (s *Service) Verdicts(city string) ([]store.VerdictEntry, error) {
	return s.store.GetVerdicts(city)
}

func (s *Service) citySeries(datasetID uuid.UUID, city string) (series.Series, error) {
	ds, err := s.store.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}
	ser, ok := ds.Cities[city]
	if !ok {
		return nil, ErrCityNotFound
	}
	return ser, nil
}

package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/i474232898/temperature-anomaly-analysis/internal/fetch"
	"github.com/i474232898/temperature-anomaly-analysis/internal/series"
	"github.com/i474232898/temperature-anomaly-analysis/internal/store"
)

// stubFetcher returns a fixed reading or error for every city.
type stubFetcher struct {
	temp  float64
	err   error
	calls int
}

func (f *stubFetcher) Current(_ context.Context, city string, _ fetch.Mode) (fetch.Reading, error) {
	f.calls++
	if f.err != nil {
		return fetch.Reading{}, f.err
	}
	return fetch.Reading{City: city, TemperatureC: f.temp}, nil
}

const summerCSV = `city,timestamp,temperature,season
Berlin,2024-06-01,18,summer
Berlin,2024-06-02,20,summer
Berlin,2024-06-03,22,summer
Berlin,2024-06-04,19,summer
Berlin,2024-12-01,0,winter
`

func newTestService(t *testing.T, fetcher Fetcher) (*Service, *store.Dataset) {
	t.Helper()

	svc := NewService(store.NewMemoryStore(5, 10), fetcher, 3, 2)
	ds, err := svc.UploadDataset(strings.NewReader(summerCSV))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return svc, ds
}

func TestUploadRejectsEmptyCSV(t *testing.T) {
	svc := NewService(store.NewMemoryStore(5, 10), &stubFetcher{}, 3, 2)

	if _, err := svc.UploadDataset(strings.NewReader("city,timestamp,temperature,season\n")); err == nil {
		t.Fatal("expected error for csv without data rows")
	}
}

func TestAnomaliesUnknownCity(t *testing.T) {
	svc, ds := newTestService(t, &stubFetcher{})

	if _, err := svc.Anomalies(ds.ID, "Atlantis", 0, 0); !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
	if _, err := svc.Anomalies(uuid.New(), "Berlin", 0, 0); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}

func TestAnomaliesUsesConfiguredDefaults(t *testing.T) {
	svc, ds := newTestService(t, &stubFetcher{})

	es, err := svc.Anomalies(ds.ID, "Berlin", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Default window is 3: the first two points stay undefined.
	if es[0].RollingMean != nil || es[1].RollingMean != nil {
		t.Fatal("warmup points should be undefined with default window 3")
	}
	if es[2].RollingMean == nil {
		t.Fatal("third point should be defined with default window 3")
	}
}

func TestClassifyCurrentNormal(t *testing.T) {
	fetcher := &stubFetcher{temp: 20}
	svc, ds := newTestService(t, fetcher)

	result, err := svc.ClassifyCurrent(context.Background(), ds.ID, "Berlin", fetch.ModeSync)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Summer dominates (4 of 5 records); 20°C sits near the summer mean.
	if result.Verdict != series.VerdictNormal {
		t.Fatalf("expected normal verdict, got %s", result.Verdict)
	}
	if result.Baseline == nil || result.Baseline.Season != "summer" {
		t.Fatalf("expected summer baseline, got %+v", result.Baseline)
	}

	// The outcome lands in the verdict history.
	verdicts, err := svc.Verdicts("Berlin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verdicts) != 1 || verdicts[0].Verdict != series.VerdictNormal {
		t.Fatalf("expected one normal verdict in history, got %+v", verdicts)
	}
}

func TestClassifyCurrentAnomalous(t *testing.T) {
	fetcher := &stubFetcher{temp: 45}
	svc, ds := newTestService(t, fetcher)

	result, err := svc.ClassifyCurrent(context.Background(), ds.ID, "Berlin", fetch.ModeSync)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Verdict != series.VerdictAnomalous {
		t.Fatalf("expected anomalous verdict for 45°C, got %s", result.Verdict)
	}
}

func TestClassifyCurrentUndetermined(t *testing.T) {
	// One record per season: no season reaches the two records a
	// baseline needs.
	csv := `city,timestamp,temperature,season
Oslo,2024-06-01,15,summer
Oslo,2024-12-01,-5,winter
`
	fetcher := &stubFetcher{temp: 10}
	svc := NewService(store.NewMemoryStore(5, 10), fetcher, 3, 2)
	ds, err := svc.UploadDataset(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	result, err := svc.ClassifyCurrent(context.Background(), ds.ID, "Oslo", fetch.ModeSync)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Verdict != series.VerdictUndetermined {
		t.Fatalf("expected undetermined verdict, got %s", result.Verdict)
	}
	if result.Baseline != nil {
		t.Fatal("undetermined verdict must not carry a baseline")
	}
}

func TestClassifyCurrentFetchErrorPassesThrough(t *testing.T) {
	fetchErr := &fetch.APIError{Status: 401, Message: "Invalid API key"}
	fetcher := &stubFetcher{err: fetchErr}
	svc, ds := newTestService(t, fetcher)

	_, err := svc.ClassifyCurrent(context.Background(), ds.ID, "Berlin", fetch.ModeSync)
	var apiErr *fetch.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError to pass through, got %v", err)
	}

	// A failed fetch must not pollute the verdict history.
	if _, err := svc.Verdicts("Berlin"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected empty history after failed fetch, got %v", err)
	}
}

func TestRefreshTrackedSkipsUnknownCities(t *testing.T) {
	fetcher := &stubFetcher{temp: 20}
	svc, _ := newTestService(t, fetcher)

	svc.RefreshTracked(context.Background(), []string{"Berlin", "Atlantis"})

	if fetcher.calls != 1 {
		t.Fatalf("expected exactly one fetch for the known city, got %d", fetcher.calls)
	}
	if _, err := svc.Verdicts("Berlin"); err != nil {
		t.Fatalf("expected a verdict for Berlin, got %v", err)
	}
}

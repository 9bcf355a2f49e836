package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/temperature-anomaly-analysis/internal/series"
)

var (
	// ErrNotFound is returned when no dataset or history exists for a key.
	ErrNotFound = errors.New("no data for requested key")
)

// Dataset is one validated CSV upload: per-city series under a unique
// identity. The ID doubles as the memoization key for derived results,
// so a re-upload of the same file still gets fresh computations.
type Dataset struct {
	ID         uuid.UUID                `json:"id"`
	UploadedAt time.Time                `json:"uploadedAt"`
	Cities     map[string]series.Series `json:"-"`
}

// VerdictEntry records one live-reading classification for a city.
type VerdictEntry struct {
	City         string         `json:"city"`
	Timestamp    time.Time      `json:"timestamp"` // always UTC
	TemperatureC float64        `json:"temperatureC"`
	Season       string         `json:"season,omitempty"`
	Verdict      series.Verdict `json:"verdict"`
}

// MemoryStore is a concurrency-safe in-memory store for uploaded
// datasets and per-city verdict history, with count-based retention.
type MemoryStore struct {
	mu sync.RWMutex

	datasets map[uuid.UUID]*Dataset
	order    []uuid.UUID // upload order, oldest first

	verdicts map[string][]VerdictEntry

	maxDatasets int // <= 0 means unlimited
	maxVerdicts int // per city, <= 0 means unlimited

	onEvict func(uuid.UUID)
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
func NewMemoryStore(maxDatasets, maxVerdicts int) *MemoryStore {
	return &MemoryStore{
		datasets:    make(map[uuid.UUID]*Dataset),
		verdicts:    make(map[string][]VerdictEntry),
		maxDatasets: maxDatasets,
		maxVerdicts: maxVerdicts,
	}
}

// SetEvictHook registers a callback invoked with the ID of every dataset
// dropped by retention, letting the caller invalidate derived caches.
func (s *MemoryStore) SetEvictHook(fn func(uuid.UUID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// SaveDataset stores a freshly loaded upload under a new identity and
// enforces dataset retention.
func (s *MemoryStore) SaveDataset(cities map[string]series.Series) *Dataset {
	ds := &Dataset{
		ID:         uuid.New(),
		UploadedAt: time.Now().UTC(),
		Cities:     cities,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[ds.ID] = ds
	s.order = append(s.order, ds.ID)

	if s.maxDatasets > 0 && len(s.order) > s.maxDatasets {
		over := len(s.order) - s.maxDatasets
		for _, id := range s.order[:over] {
			delete(s.datasets, id)
			if s.onEvict != nil {
				s.onEvict(id)
			}
		}
		s.order = s.order[over:]
	}

	return ds
}

// GetDataset returns a stored dataset by ID.
func (s *MemoryStore) GetDataset(id uuid.UUID) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ds, nil
}

// Latest returns the most recently uploaded dataset.
func (s *MemoryStore) Latest() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, ErrNotFound
	}
	return s.datasets[s.order[len(s.order)-1]], nil
}

// AppendVerdict appends a live classification to a city's history and
// enforces per-city retention.
func (s *MemoryStore) AppendVerdict(entry VerdictEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.verdicts[entry.City], entry)
	if s.maxVerdicts > 0 && len(history) > s.maxVerdicts {
		over := len(history) - s.maxVerdicts
		history = history[over:]
	}
	s.verdicts[entry.City] = history
}

// GetVerdicts returns the verdict history for a city, oldest first.
func (s *MemoryStore) GetVerdicts(city string) ([]VerdictEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.verdicts[city]
	if !ok || len(history) == 0 {
		return nil, ErrNotFound
	}

	out := make([]VerdictEntry, len(history))
	copy(out, history)
	return out, nil
}

package status

import (
	"sync"
	"time"

	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

// RunStats mirrors the cursor's per-run counters for /metrics.
type RunStats struct {
	Windows    int `json:"windows"`
	Pages      int `json:"pages"`
	Fixtures   int `json:"fixtures"`
	Duplicates int `json:"duplicates"`
}

// Store keeps the last completed run in memory for the HTTP endpoints.
type Store struct {
	mu          sync.RWMutex
	fixtures    []models.FixtureRecord
	lastStats   RunStats
	lastRunAt   time.Time
	lastRunTook time.Duration
	runs        int
	failures    int
}

func NewStore() *Store {
	return &Store{}
}

// SetRun replaces the stored snapshot with the just-completed run.
func (s *Store) SetRun(fixtures []models.FixtureRecord, stats RunStats, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures = fixtures
	s.lastStats = stats
	s.lastRunAt = time.Now().UTC()
	s.lastRunTook = took
	s.runs++
}

func (s *Store) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

func (s *Store) Fixtures() []models.FixtureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fixtures
}

// Metrics is the /metrics payload.
type Metrics struct {
	Runs        int       `json:"runs"`
	Failures    int       `json:"failures"`
	LastRunAt   time.Time `json:"last_run_at"`
	LastRunTook string    `json:"last_run_took"`
	LastRun     RunStats  `json:"last_run"`
}

func (s *Store) Snapshot() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Metrics{
		Runs:        s.runs,
		Failures:    s.failures,
		LastRunAt:   s.lastRunAt,
		LastRunTook: s.lastRunTook.String(),
		LastRun:     s.lastStats,
	}
}

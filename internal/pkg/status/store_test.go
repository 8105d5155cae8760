package status

import (
	"testing"
	"time"

	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

func TestStoreSetRun(t *testing.T) {
	s := NewStore()

	fixtures := []models.FixtureRecord{{ID: 1, Home: "A", Away: "B"}}
	stats := RunStats{Windows: 2, Pages: 3, Fixtures: 1, Duplicates: 1}
	s.SetRun(fixtures, stats, 1500*time.Millisecond)

	if got := s.Fixtures(); len(got) != 1 || got[0].Home != "A" {
		t.Errorf("Fixtures() = %+v", got)
	}

	m := s.Snapshot()
	if m.Runs != 1 || m.Failures != 0 {
		t.Errorf("counters = %+v", m)
	}
	if m.LastRun != stats {
		t.Errorf("LastRun = %+v, want %+v", m.LastRun, stats)
	}
	if m.LastRunTook != "1.5s" {
		t.Errorf("LastRunTook = %q", m.LastRunTook)
	}
	if m.LastRunAt.IsZero() {
		t.Error("LastRunAt not set")
	}
}

func TestStoreRecordFailure(t *testing.T) {
	s := NewStore()
	s.RecordFailure()
	s.RecordFailure()

	m := s.Snapshot()
	if m.Failures != 2 || m.Runs != 0 {
		t.Errorf("counters = %+v", m)
	}
	if got := s.Fixtures(); got != nil {
		t.Errorf("no run stored yet, got %+v", got)
	}
}

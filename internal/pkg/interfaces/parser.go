package interfaces

import (
	"context"
	"time"

	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

// Parser interface for bookmaker scrapers
type Parser interface {
	// Start starts the parser (may run in background or just wait for context)
	Start(ctx context.Context) error

	// Stop stops the parser
	Stop() error

	// GetName returns the parser name
	GetName() string

	// ParseOnce triggers a single scrape run (one run, success or fatal error)
	ParseOnce(ctx context.Context) error
}

// FixtureStorage persists a completed run's fixture snapshot.
type FixtureStorage interface {
	StoreFixtures(ctx context.Context, fixtures []models.FixtureRecord) error
	Close() error
}

// RunNotifier reports run outcomes to an external channel (Telegram).
type RunNotifier interface {
	NotifyRunFinished(fixtures int, duration time.Duration)
	NotifyRunFailed(err error)
}

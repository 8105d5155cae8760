package twoup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bangersure/twoupfeed/internal/pkg/config"
	"github.com/bangersure/twoupfeed/internal/pkg/interfaces"
	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

const parserName = "2up"

// Parser runs one scrape cycle end to end: cursor walk, then handing
// the snapshot to every configured sink. The first sink is the primary
// persistence target and its failure fails the run; the rest are
// best-effort.
type Parser struct {
	cfg      *config.Config
	cursor   *Cursor
	sinks    []interfaces.FixtureStorage
	notifier interfaces.RunNotifier

	// onRun, when set, receives each completed run (status server hook).
	onRun func(fixtures []models.FixtureRecord, stats RunStats, duration time.Duration)
}

func NewParser(cfg *config.Config, sinks ...interfaces.FixtureStorage) *Parser {
	c := &cfg.TwoUp
	client := NewClient(c.BaseURL, c.Timeout, c.Lang, c.SocketClientID, Credentials{
		Cookies:          c.Cookies,
		RequestSign:      c.RequestSign,
		RequestTimestamp: c.RequestTimestamp,
	})
	return &Parser{
		cfg:    cfg,
		cursor: NewCursor(client, c.WindowHours, c.PageSize, c.StartPage),
		sinks:  sinks,
	}
}

// SetNotifier attaches an optional run-outcome notifier.
func (p *Parser) SetNotifier(n interfaces.RunNotifier) {
	p.notifier = n
}

// SetRunHook attaches an optional per-run callback.
func (p *Parser) SetRunHook(fn func(fixtures []models.FixtureRecord, stats RunStats, duration time.Duration)) {
	p.onRun = fn
}

func (p *Parser) runOnce(ctx context.Context) error {
	start := time.Now()

	fixtures, err := p.cursor.Run(ctx)
	if err != nil {
		if p.notifier != nil {
			p.notifier.NotifyRunFailed(err)
		}
		return err
	}

	stats := p.cursor.Stats()
	slog.Info("2up: run finished",
		"fixtures", stats.Fixtures, "windows", stats.Windows, "pages", stats.Pages,
		"duplicates", stats.Duplicates, "duration", time.Since(start))

	for i, sink := range p.sinks {
		if err := sink.StoreFixtures(ctx, fixtures); err != nil {
			if i == 0 {
				if p.notifier != nil {
					p.notifier.NotifyRunFailed(err)
				}
				return fmt.Errorf("store fixtures: %w", err)
			}
			slog.Warn("2up: fixture sink failed", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}

	if p.onRun != nil {
		p.onRun(fixtures, stats, time.Since(start))
	}
	if p.notifier != nil {
		p.notifier.NotifyRunFinished(stats.Fixtures, time.Since(start))
	}
	return nil
}

func (p *Parser) Start(ctx context.Context) error {
	slog.Info("Starting 2up parser (background mode)...")
	if err := p.runOnce(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (p *Parser) ParseOnce(ctx context.Context) error {
	return p.runOnce(ctx)
}

func (p *Parser) Stop() error {
	return nil
}

func (p *Parser) GetName() string {
	return parserName
}

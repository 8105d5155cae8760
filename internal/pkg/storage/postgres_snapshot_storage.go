package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/bangersure/twoupfeed/internal/pkg/config"
	"github.com/bangersure/twoupfeed/internal/pkg/interfaces"
	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

// Ensure PostgresSnapshotStorage implements FixtureStorage
var _ interfaces.FixtureStorage = (*PostgresSnapshotStorage)(nil)

// PostgresSnapshotStorage keeps one flattened row per fixture market
// line, upserted on every run, so downstream consumers can diff
// snapshots in SQL.
type PostgresSnapshotStorage struct {
	db *sql.DB
}

func NewPostgresSnapshotStorage(cfg *config.PostgresConfig) (*PostgresSnapshotStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresSnapshotStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL fixture snapshot storage initialized successfully")
	return s, nil
}

func (s *PostgresSnapshotStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS fixture_odds_snapshots (
		id SERIAL PRIMARY KEY,
		fixture_id BIGINT NOT NULL,
		bookmaker VARCHAR(50) NOT NULL,
		home VARCHAR(300) NOT NULL,
		away VARCHAR(300) NOT NULL,
		kickoff VARCHAR(40) NOT NULL,
		league VARCHAR(300) NOT NULL,
		market VARCHAR(20) NOT NULL,
		hdp DOUBLE PRECISION NOT NULL DEFAULT 0,
		home_price VARCHAR(16) NOT NULL DEFAULT '',
		draw_price VARCHAR(16) NOT NULL DEFAULT '',
		away_price VARCHAR(16) NOT NULL DEFAULT '',
		over_price VARCHAR(16) NOT NULL DEFAULT '',
		under_price VARCHAR(16) NOT NULL DEFAULT '',
		recorded_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(fixture_id, bookmaker, market, hdp)
	);

	CREATE INDEX IF NOT EXISTS idx_fixture_odds_snapshots_fixture ON fixture_odds_snapshots(fixture_id);
	CREATE INDEX IF NOT EXISTS idx_fixture_odds_snapshots_kickoff ON fixture_odds_snapshots(kickoff);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreFixtures upserts every priced line of the snapshot. One row per
// (fixture, bookmaker, market, hdp), updated on each run.
func (s *PostgresSnapshotStorage) StoreFixtures(ctx context.Context, fixtures []models.FixtureRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fixture_odds_snapshots
			(fixture_id, bookmaker, home, away, kickoff, league, market, hdp,
			 home_price, draw_price, away_price, over_price, under_price, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (fixture_id, bookmaker, market, hdp) DO UPDATE SET
			home_price = EXCLUDED.home_price,
			draw_price = EXCLUDED.draw_price,
			away_price = EXCLUDED.away_price,
			over_price = EXCLUDED.over_price,
			under_price = EXCLUDED.under_price,
			recorded_at = EXCLUDED.recorded_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for fi := range fixtures {
		f := &fixtures[fi]
		for bookmaker, blocks := range f.Bookmakers {
			for _, block := range blocks {
				for _, entry := range block.Odds {
					hdp := 0.0
					if entry.Hdp != nil {
						hdp = *entry.Hdp
					}
					if _, err := stmt.ExecContext(ctx,
						f.ID, bookmaker, f.Home, f.Away, f.Date, f.League.Name, block.Name, hdp,
						entry.Home, entry.Draw, entry.Away, entry.Over, entry.Under); err != nil {
						return fmt.Errorf("upsert fixture %d %s line: %w", f.ID, block.Name, err)
					}
					rows++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("Fixture snapshot stored in PostgreSQL", "fixtures", len(fixtures), "rows", rows)
	return nil
}

func (s *PostgresSnapshotStorage) Close() error {
	return s.db.Close()
}

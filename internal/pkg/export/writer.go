package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

const defaultFileName = "2up_output_data.json"

// Writer serializes one run's fixture snapshot as indented UTF-8 JSON,
// one file per run (overwritten each run). An empty or relative path is
// resolved against the default data directory.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) StoreFixtures(ctx context.Context, fixtures []models.FixtureRecord) error {
	path, err := w.resolvePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(fixtures, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal fixtures: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	slog.Info("Snapshot written", "path", path, "fixtures", len(fixtures))
	return nil
}

func (w *Writer) Close() error {
	return nil
}

func (w *Writer) resolvePath() (string, error) {
	if filepath.IsAbs(w.path) {
		if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
		return w.path, nil
	}

	dir := os.Getenv("TWOUP_OUTPUT_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".twoupfeed", "data")
	}
	name := w.path
	if name == "" {
		name = defaultFileName
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return path, nil
}

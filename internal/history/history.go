// Package history persists per-asset detection history in SQLite and feeds
// it to the failure-risk estimator. The asset identifier is derived from the
// image name, so repeated inspections of the same container accumulate.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/12Rushikesh/damage-agent/internal/detector"
	"github.com/12Rushikesh/damage-agent/internal/risk"
)

// Store wraps the detection-history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory history database (useful for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS detections (
    id TEXT PRIMARY KEY,
    asset TEXT NOT NULL,
    label TEXT NOT NULL,
    confidence REAL NOT NULL,
    age_years REAL NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_detections_asset ON detections(asset, created_at);
`

// Append records every detection of one processed image under the asset.
func (s *Store) Append(ctx context.Context, asset string, dets []detector.Detection, ageYears float64) error {
	if len(dets) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, d := range dets {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO detections (id, asset, label, confidence, age_years, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), asset, d.Label, d.Confidence, ageYears, now,
		)
		if err != nil {
			return fmt.Errorf("inserting detection: %w", err)
		}
	}
	return nil
}

// ForAsset returns the asset's detection history in chronological order.
// An unknown asset yields an empty history, all-zero risk inputs.
func (s *Store) ForAsset(ctx context.Context, asset string) ([]risk.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, age_years, created_at FROM detections
		 WHERE asset = ? ORDER BY created_at ASC`, asset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", asset, err)
	}
	defer rows.Close()

	var records []risk.Record
	for rows.Next() {
		var r risk.Record
		if err := rows.Scan(&r.Label, &r.AgeYears, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AssetID derives the asset identifier from an image filename: the stem up
// to the first underscore, so "crate42_0019.jpg" and "crate42_0020.jpg"
// share one history.
func AssetID(imageName string) string {
	stem := strings.TrimSuffix(filepath.Base(imageName), filepath.Ext(imageName))
	if i := strings.Index(stem, "_"); i > 0 {
		return stem[:i]
	}
	return stem
}

// Package history keeps metadata about finished tracks: preset, mode,
// timing and where the take was exported. It never stores audio.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Track is one stored take.
type Track struct {
	ID       uuid.UUID
	Preset   string
	Mode     string
	Started  time.Time
	Duration time.Duration
	Complete bool
	File     string
}

// Store is the track history.
type Store interface {
	Add(Track) error
	Recent(limit int) ([]Track, error)
	Close() error
}

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=2000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	ddl := `
CREATE TABLE IF NOT EXISTS tracks (
    id          TEXT    PRIMARY KEY,
    preset      TEXT    NOT NULL,
    mode        TEXT    NOT NULL DEFAULT '',
    started     TEXT    NOT NULL,
    duration_ms INTEGER NOT NULL,
    complete    INTEGER NOT NULL DEFAULT 0,
    file        TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tracks_started ON tracks(started DESC);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path is the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Add stores t, assigning an ID when it has none. Adding an existing ID
// replaces the row.
func (s *SQLiteStore) Add(t Track) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	complete := 0
	if t.Complete {
		complete = 1
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO tracks (id, preset, mode, started, duration_ms, complete, file)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Preset, t.Mode, t.Started.UTC().Format(timeLayout),
		t.Duration.Milliseconds(), complete, t.File,
	)
	if err != nil {
		return fmt.Errorf("history add %s: %w", t.ID, err)
	}
	return nil
}

// Recent returns up to limit tracks, newest first. limit <= 0 returns all.
func (s *SQLiteStore) Recent(limit int) ([]Track, error) {
	query := `SELECT id, preset, mode, started, duration_ms, complete, file
		FROM tracks ORDER BY started DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var (
			id, preset, mode, started, file string
			ms                              int64
			complete                        int
		)
		if err := rows.Scan(&id, &preset, &mode, &started, &ms, &complete, &file); err != nil {
			return nil, err
		}
		uid, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		ts, err := time.Parse(timeLayout, started)
		if err != nil {
			continue
		}
		tracks = append(tracks, Track{
			ID:       uid,
			Preset:   preset,
			Mode:     mode,
			Started:  ts,
			Duration: time.Duration(ms) * time.Millisecond,
			Complete: complete != 0,
			File:     file,
		})
	}
	return tracks, rows.Err()
}

// Count returns the number of stored tracks.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n)
	return n, err
}

// Clean deletes tracks started before cutoff.
func (s *SQLiteStore) Clean(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM tracks WHERE started < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Package store persists barkd's durable state: the report history
// (most recent first) and the calming-sound recording registry.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"barkd/detect"
	"barkd/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
    id               TEXT PRIMARY KEY,
    session_id       TEXT NOT NULL,
    generated_at     INTEGER NOT NULL,
    duration_s       INTEGER NOT NULL,
    total_barks      INTEGER NOT NULL,
    sounds_played    INTEGER NOT NULL,
    average_volume   REAL NOT NULL,
    peak_volume      REAL NOT NULL,
    level_breakdown  TEXT NOT NULL,
    timeline         TEXT NOT NULL,
    comparison       TEXT
);

CREATE INDEX IF NOT EXISTS idx_reports_generated ON reports(generated_at DESC);

CREATE TABLE IF NOT EXISTS recordings (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    path        TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    level       INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recordings_level ON recordings(level);
`

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DefaultPath returns the per-user database location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "barkd", "barkd.db"), nil
}

// InsertReport appends a generated report to the history. Reports are
// immutable; there is no update path.
func (s *Store) InsertReport(r *report.Report) error {
	breakdown, err := json.Marshal(r.LevelBreakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	timeline, err := json.Marshal(r.Timeline)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	var comparison []byte
	if r.Comparison != nil {
		comparison, err = json.Marshal(r.Comparison)
		if err != nil {
			return fmt.Errorf("encode comparison: %w", err)
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO reports (id, session_id, generated_at, duration_s, total_barks, sounds_played,
			average_volume, peak_volume, level_breakdown, timeline, comparison)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.GeneratedAt.UnixMilli(), r.DurationSeconds, r.TotalBarks, r.SoundsPlayed,
		r.AverageVolume, r.PeakVolume, string(breakdown), string(timeline), nullable(comparison),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// Reports returns the full history, most recent first.
func (s *Store) Reports() ([]report.Report, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, generated_at, duration_s, total_barks, sounds_played,
			average_volume, peak_volume, level_breakdown, timeline, comparison
		FROM reports ORDER BY generated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []report.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// LatestReport returns the most recent report, or nil when the history is
// empty.
func (s *Store) LatestReport() (*report.Report, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, generated_at, duration_s, total_barks, sounds_played,
			average_volume, peak_volume, level_breakdown, timeline, comparison
		FROM reports ORDER BY generated_at DESC LIMIT 1`)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ReportByID fetches one report. Returns nil when absent.
func (s *Store) ReportByID(id string) (*report.Report, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, generated_at, duration_s, total_barks, sounds_played,
			average_volume, peak_volume, level_breakdown, timeline, comparison
		FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (report.Report, error) {
	var (
		r           report.Report
		generatedAt int64
		breakdown   string
		timeline    string
		comparison  sql.NullString
	)
	err := row.Scan(&r.ID, &r.SessionID, &generatedAt, &r.DurationSeconds, &r.TotalBarks,
		&r.SoundsPlayed, &r.AverageVolume, &r.PeakVolume, &breakdown, &timeline, &comparison)
	if err != nil {
		return report.Report{}, err
	}
	r.GeneratedAt = time.UnixMilli(generatedAt)
	if err := json.Unmarshal([]byte(breakdown), &r.LevelBreakdown); err != nil {
		return report.Report{}, fmt.Errorf("decode breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(timeline), &r.Timeline); err != nil {
		return report.Report{}, fmt.Errorf("decode timeline: %w", err)
	}
	if comparison.Valid {
		r.Comparison = &report.Comparison{}
		if err := json.Unmarshal([]byte(comparison.String), r.Comparison); err != nil {
			return report.Report{}, fmt.Errorf("decode comparison: %w", err)
		}
	}
	return r, nil
}

// SaveRecording inserts or replaces a calming-sound registration.
func (s *Store) SaveRecording(rec detect.Recording) error {
	now := time.Now().UnixMilli()
	_, err := s.db.Exec(`
		INSERT INTO recordings (id, name, path, duration_ms, level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, path = excluded.path,
			duration_ms = excluded.duration_ms, level = excluded.level,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Path, rec.Duration.Milliseconds(), rec.Level, now, now,
	)
	if err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	return nil
}

// Recordings lists the registry ordered by level.
func (s *Store) Recordings() ([]detect.Recording, error) {
	rows, err := s.db.Query(`
		SELECT id, name, path, duration_ms, level FROM recordings ORDER BY level, created_at`)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var recs []detect.Recording
	for rows.Next() {
		var rec detect.Recording
		var durationMs int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Path, &durationMs, &rec.Level); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RecordingByLevel returns the recording registered for a level, or nil.
func (s *Store) RecordingByLevel(level int) (*detect.Recording, error) {
	recs, err := s.Recordings()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].Level == level {
			return &recs[i], nil
		}
	}
	return nil, nil
}

// DeleteRecording removes one registry entry.
func (s *Store) DeleteRecording(id string) error {
	_, err := s.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	return nil
}

// LongestRecording returns the longest registered calming sound, used by
// the settings surface to floor the cooldown. Zero when empty.
func (s *Store) LongestRecording() (time.Duration, error) {
	var ms sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(duration_ms) FROM recordings`).Scan(&ms)
	if err != nil {
		return 0, fmt.Errorf("longest recording: %w", err)
	}
	if !ms.Valid {
		return 0, nil
	}
	return time.Duration(ms.Int64) * time.Millisecond, nil
}

// ClearAll is the bulk data-clear: it wipes the report history and the
// recording registry. Individual events are never deleted any other way.
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range []string{`DELETE FROM reports`, `DELETE FROM recordings`} {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("clear: %w", err)
		}
	}
	return tx.Commit()
}

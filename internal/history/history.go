// Package history keeps a local SQLite log of detections, quality
// evaluations and progress snapshots so trends survive between runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const (
	KindDetections = "detections"
	KindQuality    = "quality"
	KindProgress   = "progress"

	DefaultLimit = 20
)

// Kinds lists the record kinds in display order.
var Kinds = []string{KindDetections, KindQuality, KindProgress}

type Detection struct {
	ID         string    `json:"id"`
	RunAt      time.Time `json:"runAt"`
	Phase      string    `json:"phase"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Certainty  string    `json:"certainty"`
}

type QualityEvaluation struct {
	ID    string    `json:"id"`
	RunAt time.Time `json:"runAt"`
	Phase string    `json:"phase"`
	Score int       `json:"score"`
	Grade string    `json:"grade"`
}

type ProgressSnapshot struct {
	ID              string    `json:"id"`
	RunAt           time.Time `json:"runAt"`
	Repository      string    `json:"repository"`
	CompletionRate  int       `json:"completionRate"`
	BlockRate       int       `json:"blockRate"`
	OpenBottlenecks int       `json:"openBottlenecks"`
}

// Store is an open history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. The database and
// its WAL files are git-ignored so recording never dirties the working tree.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	if err := ignore(path); err != nil {
		return nil, fmt.Errorf("history: write .gitignore: %w", err)
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// ignore writes a .gitignore beside the database unless one exists. The
// file lists itself so it is never reported as untracked either.
func ignore(path string) error {
	gi := filepath.Join(filepath.Dir(path), ".gitignore")
	if _, err := os.Stat(gi); err == nil {
		return nil
	}
	return os.WriteFile(gi, []byte(filepath.Base(path)+"*\n.gitignore\n"), 0644)
}

// With opens the store at path, runs fn and closes the store.
func With(path string, fn func(*Store) error) error {
	s, err := Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS detections (
			id         TEXT PRIMARY KEY,
			run_at     TEXT NOT NULL,
			phase      TEXT NOT NULL,
			score      REAL NOT NULL,
			confidence REAL NOT NULL,
			certainty  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS quality_evaluations (
			id     TEXT PRIMARY KEY,
			run_at TEXT NOT NULL,
			phase  TEXT NOT NULL,
			score  INTEGER NOT NULL,
			grade  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS progress_snapshots (
			id               TEXT PRIMARY KEY,
			run_at           TEXT NOT NULL,
			repository       TEXT NOT NULL,
			completion_rate  INTEGER NOT NULL,
			block_rate       INTEGER NOT NULL,
			open_bottlenecks INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_detections_run_at ON detections(run_at);
		CREATE INDEX IF NOT EXISTS idx_quality_run_at ON quality_evaluations(run_at);
		CREATE INDEX IF NOT EXISTS idx_progress_run_at ON progress_snapshots(run_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Timestamps are stored as fixed-width UTC text so they sort correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if at.IsZero() {
		*at = time.Now()
	}
	*at = at.UTC()
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func (s *Store) RecordDetection(ctx context.Context, d *Detection) error {
	stamp(&d.ID, &d.RunAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO detections (id, run_at, phase, score, confidence, certainty) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.RunAt.Format(timeLayout), d.Phase, d.Score, d.Confidence, d.Certainty)
	if err != nil {
		return fmt.Errorf("history: record detection: %w", err)
	}
	return nil
}

func (s *Store) RecordQuality(ctx context.Context, q *QualityEvaluation) error {
	stamp(&q.ID, &q.RunAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quality_evaluations (id, run_at, phase, score, grade) VALUES (?, ?, ?, ?, ?)`,
		q.ID, q.RunAt.Format(timeLayout), q.Phase, q.Score, q.Grade)
	if err != nil {
		return fmt.Errorf("history: record quality: %w", err)
	}
	return nil
}

func (s *Store) RecordProgress(ctx context.Context, p *ProgressSnapshot) error {
	stamp(&p.ID, &p.RunAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress_snapshots (id, run_at, repository, completion_rate, block_rate, open_bottlenecks) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.RunAt.Format(timeLayout), p.Repository, p.CompletionRate, p.BlockRate, p.OpenBottlenecks)
	if err != nil {
		return fmt.Errorf("history: record progress: %w", err)
	}
	return nil
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}

// Detections returns the latest detections, newest first.
func (s *Store) Detections(ctx context.Context, limit int) ([]Detection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_at, phase, score, confidence, certainty FROM detections ORDER BY run_at DESC LIMIT ?`,
		limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("history: detections: %w", err)
	}
	defer rows.Close()

	var out []Detection
	for rows.Next() {
		var d Detection
		var at string
		if err := rows.Scan(&d.ID, &at, &d.Phase, &d.Score, &d.Confidence, &d.Certainty); err != nil {
			return nil, err
		}
		d.RunAt = parseTime(at)
		out = append(out, d)
	}
	return out, rows.Err()
}

// QualityEvaluations returns the latest evaluations, newest first. A
// non-empty phase filters to that phase.
func (s *Store) QualityEvaluations(ctx context.Context, phase string, limit int) ([]QualityEvaluation, error) {
	query := `SELECT id, run_at, phase, score, grade FROM quality_evaluations`
	args := []any{}
	if phase != "" {
		query += ` WHERE phase = ?`
		args = append(args, phase)
	}
	query += ` ORDER BY run_at DESC LIMIT ?`
	args = append(args, limitOrDefault(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: quality: %w", err)
	}
	defer rows.Close()

	var out []QualityEvaluation
	for rows.Next() {
		var q QualityEvaluation
		var at string
		if err := rows.Scan(&q.ID, &at, &q.Phase, &q.Score, &q.Grade); err != nil {
			return nil, err
		}
		q.RunAt = parseTime(at)
		out = append(out, q)
	}
	return out, rows.Err()
}

// ProgressSnapshots returns the latest snapshots, newest first.
func (s *Store) ProgressSnapshots(ctx context.Context, limit int) ([]ProgressSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_at, repository, completion_rate, block_rate, open_bottlenecks FROM progress_snapshots ORDER BY run_at DESC LIMIT ?`,
		limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("history: progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressSnapshot
	for rows.Next() {
		var p ProgressSnapshot
		var at string
		if err := rows.Scan(&p.ID, &at, &p.Repository, &p.CompletionRate, &p.BlockRate, &p.OpenBottlenecks); err != nil {
			return nil, err
		}
		p.RunAt = parseTime(at)
		out = append(out, p)
	}
	return out, rows.Err()
}

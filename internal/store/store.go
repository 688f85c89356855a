// Package store keeps a history of solver runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("store: run not found")

// Run is one persisted solver invocation.
type Run struct {
	ID             string          `json:"id"`
	Algorithm      string          `json:"algorithm"`
	Status         string          `json:"status"`
	Error          string          `json:"error,omitempty"`
	Cities         int             `json:"cities"`
	Names          []string        `json:"names,omitempty"`
	Tour           []int           `json:"tour,omitempty"`
	Fitness        float64         `json:"fitness"`
	InitialFitness float64         `json:"initial_fitness"`
	Iterations     int             `json:"iterations"`
	Accepted       int             `json:"accepted"`
	Config         json.RawMessage `json:"config,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if needed) the database at dsn. A plain file path
// gets its parent directory created first.
func New(dsn string, maxConns int) (*Store, error) {
	if path := filePath(dsn); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return s.createSchema()
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id              TEXT PRIMARY KEY,
		algorithm       TEXT NOT NULL,
		status          TEXT NOT NULL,
		error           TEXT NOT NULL DEFAULT '',
		cities          INTEGER NOT NULL,
		names           TEXT NOT NULL DEFAULT '[]',
		tour            TEXT NOT NULL DEFAULT '[]',
		fitness         REAL NOT NULL DEFAULT 0,
		initial_fitness REAL NOT NULL DEFAULT 0,
		iterations      INTEGER NOT NULL DEFAULT 0,
		accepted        INTEGER NOT NULL DEFAULT 0,
		config          TEXT NOT NULL DEFAULT '{}',
		started_at      INTEGER NOT NULL,
		finished_at     INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return err
	}
	return tx.Commit()
}

// Save inserts or replaces a run.
func (s *Store) Save(ctx context.Context, r *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := json.Marshal(nonNilStrings(r.Names))
	if err != nil {
		return fmt.Errorf("failed to encode names: %w", err)
	}
	tour, err := json.Marshal(nonNilInts(r.Tour))
	if err != nil {
		return fmt.Errorf("failed to encode tour: %w", err)
	}
	config := r.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}

	var finished int64
	if !r.FinishedAt.IsZero() {
		finished = r.FinishedAt.UnixNano()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, algorithm, status, error, cities, names, tour, fitness, initial_fitness,
			 iterations, accepted, config, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Algorithm, r.Status, r.Error, r.Cities, string(names), string(tour), r.Fitness, r.InitialFitness,
		r.Iterations, r.Accepted, string(config), r.StartedAt.UnixNano(), finished,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.ID, err)
	}
	return nil
}

const selectRun = `SELECT id, algorithm, status, error, cities, names, tour, fitness, initial_fitness,
	iterations, accepted, config, started_at, finished_at FROM runs`

// Get loads a run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, err := scanRun(s.db.QueryRowContext(ctx, selectRun+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return r, nil
}

// List returns up to limit runs, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectRun+" ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r                 Run
		names, tour, conf string
		started, finished int64
	)
	if err := row.Scan(&r.ID, &r.Algorithm, &r.Status, &r.Error, &r.Cities, &names, &tour,
		&r.Fitness, &r.InitialFitness, &r.Iterations, &r.Accepted, &conf, &started, &finished); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(names), &r.Names); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tour), &r.Tour); err != nil {
		return nil, err
	}
	r.Config = json.RawMessage(conf)
	r.StartedAt = time.Unix(0, started).UTC()
	if finished != 0 {
		r.FinishedAt = time.Unix(0, finished).UTC()
	}
	return &r, nil
}

// filePath extracts the filesystem path from a DSN, or "" for in-memory
// databases.
func filePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return ""
	}
	return path
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

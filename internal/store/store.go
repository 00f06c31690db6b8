// Package store keeps a ledger of finished capture episodes in SQLite.
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
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no episode has the requested id.
var ErrNotFound = errors.New("episode not found")

// Episode is one finished operation.
type Episode struct {
	ID        string        `json:"id"                  yaml:"id"`
	Kind      string        `json:"kind"                yaml:"kind"`
	Detail    string        `json:"detail,omitempty"    yaml:"detail,omitempty"`
	Outcome   string        `json:"outcome"             yaml:"outcome"`
	Cause     string        `json:"cause,omitempty"     yaml:"cause,omitempty"`
	Error     string        `json:"error,omitempty"     yaml:"error,omitempty"`
	Device    string        `json:"device,omitempty"    yaml:"device,omitempty"`
	Started   time.Time     `json:"started"             yaml:"started"`
	Elapsed   time.Duration `json:"elapsed"             yaml:"elapsed"`
	Events    []string      `json:"events,omitempty"    yaml:"events,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

const schemaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

CREATE TABLE IF NOT EXISTS episodes (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    kind TEXT NOT NULL,
    detail TEXT DEFAULT '',
    outcome TEXT NOT NULL,
    cause TEXT DEFAULT '',
    error TEXT DEFAULT '',
    device TEXT DEFAULT '',
    started INTEGER NOT NULL,
    elapsed_ms INTEGER NOT NULL,
    events TEXT DEFAULT '[]',
    artifacts TEXT DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_episodes_id ON episodes(id);
CREATE INDEX IF NOT EXISTS idx_episodes_started ON episodes(started DESC);
CREATE INDEX IF NOT EXISTS idx_episodes_outcome ON episodes(outcome);
`

// Store is the episode ledger.
type Store struct {
	db         *sql.DB
	path       string
	stmtInsert *sql.Stmt
}

// Open opens or creates the ledger at path. ":memory:" keeps it in memory.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	stmt, err := db.Prepare(`INSERT INTO episodes
		(id, kind, detail, outcome, cause, error, device, started, elapsed_ms, events, artifacts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	return &Store{db: db, path: path, stmtInsert: stmt}, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s.stmtInsert != nil {
		s.stmtInsert.Close()
	}
	return s.db.Close()
}

// Add appends ep to the ledger.
func (s *Store) Add(ctx context.Context, ep Episode) error {
	events, err := json.Marshal(nonNil(ep.Events))
	if err != nil {
		return err
	}
	artifacts, err := json.Marshal(nonNil(ep.Artifacts))
	if err != nil {
		return err
	}
	_, err = s.stmtInsert.ExecContext(ctx,
		ep.ID, ep.Kind, ep.Detail, ep.Outcome, ep.Cause, ep.Error, ep.Device,
		ep.Started.UnixMilli(), ep.Elapsed.Milliseconds(), string(events), string(artifacts))
	if err != nil {
		return fmt.Errorf("insert episode %s: %w", ep.ID, err)
	}
	return nil
}

// ListOptions filters List.
type ListOptions struct {
	Limit   int    // 0 = 50
	Kind    string // empty = any
	Outcome string // empty = any
	Since   time.Time
}

const selectColumns = `id, kind, detail, outcome, cause, error, device, started, elapsed_ms, events, artifacts`

// List returns episodes, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Episode, error) {
	var where []string
	var args []interface{}
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, opts.Outcome)
	}
	if !opts.Since.IsZero() {
		where = append(where, "started >= ?")
		args = append(args, opts.Since.UnixMilli())
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + selectColumns + " FROM episodes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started DESC, seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// Get returns the most recent episode with id.
func (s *Store) Get(ctx context.Context, id string) (Episode, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM episodes WHERE id = ? ORDER BY seq DESC LIMIT 1", id)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Episode{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ep, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(sc scanner) (Episode, error) {
	var ep Episode
	var started, elapsed int64
	var events, artifacts string
	if err := sc.Scan(&ep.ID, &ep.Kind, &ep.Detail, &ep.Outcome, &ep.Cause, &ep.Error, &ep.Device,
		&started, &elapsed, &events, &artifacts); err != nil {
		return Episode{}, err
	}
	ep.Started = time.UnixMilli(started)
	ep.Elapsed = time.Duration(elapsed) * time.Millisecond
	if err := json.Unmarshal([]byte(events), &ep.Events); err != nil {
		return Episode{}, fmt.Errorf("decode events of %s: %w", ep.ID, err)
	}
	if err := json.Unmarshal([]byte(artifacts), &ep.Artifacts); err != nil {
		return Episode{}, fmt.Errorf("decode artifacts of %s: %w", ep.ID, err)
	}
	if len(ep.Events) == 0 {
		ep.Events = nil
	}
	if len(ep.Artifacts) == 0 {
		ep.Artifacts = nil
	}
	return ep, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome is the recorded result of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Build is one recorded build run.
type Build struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome
	Items     int
	Error     string
	Revision  Revision
}

// Succeeded reports whether the build produced output.
func (b Build) Succeeded() bool {
	return b.Outcome == OutcomeSuccess || b.Outcome == OutcomeWarning
}

// Fingerprint identifies one rendered item's content.
type Fingerprint struct {
	Collection  string
	ID          string
	Fingerprint string
}

// Key is "collection/id".
func (f Fingerprint) Key() string { return f.Collection + "/" + f.ID }

// Diff lists item keys that differ from the previous successful build.
type Diff struct {
	Previous string // build id compared against, empty for the first build
	// PreviousRevision is the checkout the previous build ran from.
	PreviousRevision Revision
	Added    []string
	Changed  []string
	Removed  []string
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// Store implements build history on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewBuildID returns a fresh build identifier.
func NewBuildID() string { return uuid.NewString() }

// Open opens (creating when needed) the database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		items INTEGER NOT NULL,
		error TEXT,
		revision TEXT NOT NULL DEFAULT '',
		dirty INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	CREATE TABLE IF NOT EXISTS item_fingerprints (
		build_id TEXT NOT NULL REFERENCES builds(id),
		collection TEXT NOT NULL,
		item_id TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		PRIMARY KEY (build_id, collection, item_id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	// Databases created before revisions were recorded.
	for _, col := range []struct{ name, def string }{
		{"revision", "TEXT NOT NULL DEFAULT ''"},
		{"dirty", "INTEGER NOT NULL DEFAULT 0"},
	} {
		if err := s.addColumn("builds", col.name, col.def); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addColumn(table, name, def string) error {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, name).Scan(&n); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	// #nosec G202 -- table, column and definition are constants.
	if _, err := s.db.Exec("ALTER TABLE " + table + " ADD COLUMN " + name + " " + def); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, name, err)
	}
	return nil
}

// RecordBuild stores a build and the fingerprints of the items it rendered.
func (s *Store) RecordBuild(ctx context.Context, b Build, items []Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO builds (id, started_at, duration_ms, outcome, items, error, revision, dirty) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.StartedAt.UnixMilli(), b.Duration.Milliseconds(), string(b.Outcome), b.Items, b.Error,
		b.Revision.Commit, b.Revision.Dirty,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO item_fingerprints (build_id, collection, item_id, fingerprint) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare fingerprint insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, b.ID, it.Collection, it.ID, it.Fingerprint); err != nil {
			return fmt.Errorf("insert fingerprint %s: %w", it.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}
	return nil
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, duration_ms, outcome, items, error, revision, dirty FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanBuilds(rows)
}

// LastSuccessful returns the newest build that produced output.
func (s *Store) LastSuccessful(ctx context.Context) (Build, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, duration_ms, outcome, items, error, revision, dirty FROM builds WHERE outcome IN (?, ?) ORDER BY started_at DESC, rowid DESC LIMIT 1",
		string(OutcomeSuccess), string(OutcomeWarning),
	)
	if err != nil {
		return Build{}, false, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()
	builds, err := scanBuilds(rows)
	if err != nil || len(builds) == 0 {
		return Build{}, false, err
	}
	return builds[0], true, nil
}

// Fingerprints returns the item fingerprints of buildID keyed by "collection/id".
func (s *Store) Fingerprints(ctx context.Context, buildID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT collection, item_id, fingerprint FROM item_fingerprints WHERE build_id = ?",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := map[string]string{}
	for rows.Next() {
		var f Fingerprint
		if err := rows.Scan(&f.Collection, &f.ID, &f.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out[f.Key()] = f.Fingerprint
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Diff compares current against the last successful build.
func (s *Store) Diff(ctx context.Context, current []Fingerprint) (Diff, error) {
	last, ok, err := s.LastSuccessful(ctx)
	if err != nil {
		return Diff{}, err
	}
	previous := map[string]string{}
	var d Diff
	if ok {
		d.Previous = last.ID
		d.PreviousRevision = last.Revision
		if previous, err = s.Fingerprints(ctx, last.ID); err != nil {
			return Diff{}, err
		}
	}

	seen := make(map[string]bool, len(current))
	for _, f := range current {
		key := f.Key()
		seen[key] = true
		old, existed := previous[key]
		switch {
		case !existed:
			d.Added = append(d.Added, key)
		case old != f.Fingerprint:
			d.Changed = append(d.Changed, key)
		}
	}
	for key := range previous {
		if !seen[key] {
			d.Removed = append(d.Removed, key)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Changed)
	sort.Strings(d.Removed)
	return d, nil
}

func scanBuilds(rows *sql.Rows) ([]Build, error) {
	var builds []Build
	for rows.Next() {
		var b Build
		var started, durationMS int64
		var outcome string
		var errText sql.NullString
		if err := rows.Scan(&b.ID, &started, &durationMS, &outcome, &b.Items, &errText, &b.Revision.Commit, &b.Revision.Dirty); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.StartedAt = time.UnixMilli(started).UTC()
		b.Duration = time.Duration(durationMS) * time.Millisecond
		b.Outcome = Outcome(outcome)
		b.Error = errText.String
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return builds, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

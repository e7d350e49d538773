package state

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openMemory(t)
	ctx := t.Context()
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	first := Build{ID: NewBuildID(), StartedAt: start, Duration: 1500 * time.Millisecond, Outcome: OutcomeSuccess, Items: 2,
		Revision: Revision{Commit: "0123456789abcdef0123456789abcdef01234567", Dirty: true}}
	second := Build{ID: NewBuildID(), StartedAt: start.Add(time.Hour), Duration: time.Second, Outcome: OutcomeFailed, Error: "boom"}
	require.NoError(t, s.RecordBuild(ctx, first, []Fingerprint{{"blog", "es/a", "1"}, {"blog", "en/a", "2"}}))
	require.NoError(t, s.RecordBuild(ctx, second, nil))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, second.ID, recent[0].ID)
	require.Equal(t, "boom", recent[0].Error)
	require.Equal(t, first.ID, recent[1].ID)
	require.Equal(t, 1500*time.Millisecond, recent[1].Duration)
	require.True(t, recent[1].StartedAt.Equal(start))
	require.Equal(t, first.Revision, recent[1].Revision)
	require.Equal(t, Revision{}, recent[0].Revision)

	last, ok, err := s.LastSuccessful(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first.ID, last.ID)

	fps, err := s.Fingerprints(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"blog/es/a": "1", "blog/en/a": "2"}, fps)
}

func TestDiff(t *testing.T) {
	s := openMemory(t)
	ctx := t.Context()

	d, err := s.Diff(ctx, []Fingerprint{{"blog", "es/a", "1"}})
	require.NoError(t, err)
	require.Empty(t, d.Previous)
	require.Equal(t, []string{"blog/es/a"}, d.Added)

	b := Build{ID: NewBuildID(), StartedAt: time.Now(), Outcome: OutcomeWarning, Revision: Revision{Commit: "abc123"}}
	require.NoError(t, s.RecordBuild(ctx, b, []Fingerprint{
		{"blog", "es/a", "1"},
		{"blog", "es/b", "1"},
		{"offers", "es/c", "1"},
	}))

	d, err = s.Diff(ctx, []Fingerprint{
		{"blog", "es/a", "1"},
		{"blog", "es/b", "2"},
		{"groups", "es/d", "1"},
	})
	require.NoError(t, err)
	require.Equal(t, b.ID, d.Previous)
	require.Equal(t, "abc123", d.PreviousRevision.String())
	require.Equal(t, []string{"groups/es/d"}, d.Added)
	require.Equal(t, []string{"blog/es/b"}, d.Changed)
	require.Equal(t, []string{"offers/es/c"}, d.Removed)
	require.False(t, d.Empty())
}

func TestRecordBuild_DuplicateIDFails(t *testing.T) {
	s := openMemory(t)
	b := Build{ID: "fixed", StartedAt: time.Now(), Outcome: OutcomeSuccess}
	require.NoError(t, s.RecordBuild(t.Context(), b, nil))
	require.Error(t, s.RecordBuild(t.Context(), b, nil))
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".tripsite", "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordBuild(t.Context(), Build{ID: NewBuildID(), StartedAt: time.Now(), Outcome: OutcomeSuccess}, nil))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	recent, err := reopened.Recent(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestOpenMigratesBuildsWithoutRevision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		items INTEGER NOT NULL,
		error TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO builds (id, started_at, duration_ms, outcome, items) VALUES ('old', 1, 10, 'success', 3)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	recent, err := s.Recent(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "old", recent[0].ID)
	require.Equal(t, Revision{}, recent[0].Revision)
	require.NoError(t, s.RecordBuild(t.Context(), Build{ID: "new", StartedAt: time.Now(), Outcome: OutcomeSuccess, Revision: Revision{Commit: "abc"}}, nil))
}

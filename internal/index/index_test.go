package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlyze/internal/engine"
	"github.com/Zuo-Peng/chatlyze/internal/report"
)

const chat = "[01/01/24, 09:00:00 AM] Alice: Hello!\n[01/01/24, 09:02:00 AM] Bob: Hi back! secret words\n"

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func analyze(t *testing.T, text string) *report.Report {
	t.Helper()
	r, err := engine.Analyze(context.Background(), text, engine.DefaultOptions())
	require.NoError(t, err)
	return r
}

func TestOpenDBRecordsSchemaVersion(t *testing.T) {
	db := openTest(t)
	ver, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, ver)
}

func TestSaveAndGetRun(t *testing.T) {
	db := openTest(t)
	r := analyze(t, chat)

	run := Run{
		ID:        "run-1",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		FilePath:  "/tmp/chat.txt",
		SHA256:    Digest([]byte(chat)),
		Summary:   report.Summarize(r),
	}
	require.NoError(t, db.SaveRun(run))

	got, err := db.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.CreatedAt, got.CreatedAt)
	assert.Equal(t, "bracketed_12h", got.Summary.Format)
	assert.Equal(t, []string{"Alice", "Bob"}, got.Summary.Participants)
	assert.True(t, run.Summary.FirstMessageAt.Equal(got.Summary.FirstMessageAt))

	var stored string
	require.NoError(t, db.Raw().QueryRow("SELECT summary FROM runs WHERE id = 'run-1'").Scan(&stored))
	assert.NotContains(t, stored, "secret")

	missing, err := db.GetRun("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := db.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := db.DeleteRun("run-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.DeleteRun("run-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordReplacesIdenticalContent(t *testing.T) {
	db := openTest(t)
	path := filepath.Join(t.TempDir(), "chat.txt")
	require.NoError(t, os.WriteFile(path, []byte(chat), 0o644))
	r := analyze(t, chat)

	var stats Stats
	first, err := Record(db, path, []byte(chat), r, &stats)
	require.NoError(t, err)
	second, err := Record(db, path, []byte(chat), r, &stats)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	changed := chat + "[01/01/24, 09:03:00 AM] Alice: more\n"
	third, err := Record(db, path, []byte(changed), analyze(t, changed), &stats)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	assert.Equal(t, Stats{Saved: 2, Replaced: 1}, stats)
	n, err := db.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPrune(t *testing.T) {
	db := openTest(t)
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.txt")
	gone := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(keep, []byte(chat), 0o644))
	require.NoError(t, os.WriteFile(gone, []byte(chat), 0o644))
	r := analyze(t, chat)

	var stats Stats
	_, err := Record(db, keep, []byte(chat), r, &stats)
	require.NoError(t, err)
	_, err = Record(db, gone, []byte(chat), r, &stats)
	require.NoError(t, err)
	require.NoError(t, os.Remove(gone))

	require.NoError(t, Prune(db, &stats))
	assert.Equal(t, 1, stats.Pruned)
	n, err := db.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/chatlyze/internal/report"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    id               TEXT PRIMARY KEY,
    created_at       TEXT NOT NULL,
    file_path        TEXT NOT NULL,
    sha256           TEXT NOT NULL,
    format           TEXT NOT NULL DEFAULT '',
    total_messages   INTEGER NOT NULL DEFAULT 0,
    unique_users     INTEGER NOT NULL DEFAULT 0,
    first_message_at TEXT NOT NULL DEFAULT '',
    last_message_at  TEXT NOT NULL DEFAULT '',
    participants     TEXT NOT NULL DEFAULT '',
    summary          TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS runs_digest ON runs(file_path, sha256);
`

const timeLayout = "2006-01-02T15:04:05Z"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// schemaVersion is bumped whenever the summary JSON shape changes. Older
// runs are dropped since they can no longer be decoded.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err == nil && ver == schemaVersion {
		return nil
	}
	if _, err := d.db.Exec("DELETE FROM runs"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

// SchemaVersion reports the version recorded in the database.
func (d *DB) SchemaVersion() (string, error) {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	return ver, err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// Run is one saved analysis. It holds aggregate numbers and participant
// names only.
type Run struct {
	ID        string
	CreatedAt time.Time
	FilePath  string
	SHA256    string
	Summary   report.Summary
}

func (d *DB) SaveRun(r Run) error {
	data, err := json.Marshal(r.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT OR REPLACE INTO runs (id, created_at, file_path, sha256, format, total_messages, unique_users,
		 first_message_at, last_message_at, participants, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.CreatedAt.UTC().Format(timeLayout),
		r.FilePath,
		r.SHA256,
		r.Summary.Format,
		r.Summary.TotalMessages,
		r.Summary.UniqueUsers,
		r.Summary.FirstMessageAt.Format(timeLayout),
		r.Summary.LastMessageAt.Format(timeLayout),
		strings.Join(r.Summary.Participants, ", "),
		string(data),
	)
	return err
}

// RunColumns is the select list ScanRun expects.
const RunColumns = "id, created_at, file_path, sha256, summary"

// ScanRun reads one row selected with the runs column list.
func ScanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	var created, summary string
	if err := row.Scan(&r.ID, &created, &r.FilePath, &r.SHA256, &summary); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at: %w", r.ID, err)
	}
	r.CreatedAt = t
	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return Run{}, fmt.Errorf("run %s: decode summary: %w", r.ID, err)
	}
	return r, nil
}

func (d *DB) GetRun(id string) (*Run, error) {
	row := d.db.QueryRow("SELECT "+RunColumns+" FROM runs WHERE id = ?", id)
	r, err := ScanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindByDigest returns the latest run of the same file content, if any.
func (d *DB) FindByDigest(filePath, sha string) (*Run, error) {
	row := d.db.QueryRow(
		"SELECT "+RunColumns+" FROM runs WHERE file_path = ? AND sha256 = ? ORDER BY created_at DESC LIMIT 1",
		filePath, sha,
	)
	r, err := ScanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRun removes a run by id. A missing id is not an error; the bool
// reports whether anything was deleted.
func (d *DB) DeleteRun(id string) (bool, error) {
	res, err := d.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *DB) RunCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

// RunPaths maps run ids to the export path they were computed from.
func (d *DB) RunPaths() (map[string]string, error) {
	rows, err := d.db.Query("SELECT id, file_path FROM runs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		paths[id] = path
	}
	return paths, rows.Err()
}

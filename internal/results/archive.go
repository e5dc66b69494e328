package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Archive is an optional SQLite run history. Each completed task records
// its assignment and per-case rows, enabling cross-run comparisons that
// the flat CSVs make awkward.
type Archive struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	solver      TEXT NOT NULL,
	mode        TEXT NOT NULL,
	shard       INTEGER NOT NULL,
	shards      INTEGER NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS run_results (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	test     TEXT NOT NULL,
	time_sec REAL NOT NULL,
	status   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_results_run ON run_results(run_id);
CREATE INDEX IF NOT EXISTS idx_run_results_test ON run_results(test);
`

// OpenArchive opens (creating if needed) the archive database.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// Concurrent array tasks may share the archive over a cluster
	// filesystem; a single connection with WAL and a busy timeout keeps
	// writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RunRecord describes one archived task execution.
type RunRecord struct {
	ID         string
	Solver     string
	Mode       string
	Shard      int
	Shards     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordRun stores a completed task and its rows, returning the run ID.
func (a *Archive) RecordRun(rec RunRecord, rows []Row) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	tx, err := a.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, solver, mode, shard, shards, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Solver, rec.Mode, rec.Shard, rec.Shards, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_results (run_id, test, time_sec, status) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(rec.ID, r.Test, r.TimeSec, r.Status); err != nil {
			return "", fmt.Errorf("failed to insert result row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit archive transaction: %w", err)
	}
	return rec.ID, nil
}

// Runs lists archived runs, newest first.
func (a *Archive) Runs() ([]RunRecord, error) {
	rows, err := a.db.Query(
		`SELECT id, solver, mode, shard, shards, started_at, finished_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Solver, &r.Mode, &r.Shard, &r.Shards, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunRows returns the archived rows of one run.
func (a *Archive) RunRows(runID string) ([]Row, error) {
	rows, err := a.db.Query(
		`SELECT test, time_sec, status FROM run_results WHERE run_id = ? ORDER BY test`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Test, &r.TimeSec, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CaseHistory returns a case's archived results across runs for one
// solver/mode pair, newest first.
func (a *Archive) CaseHistory(test, solverName, mode string) ([]Row, error) {
	rows, err := a.db.Query(
		`SELECT rr.test, rr.time_sec, rr.status
		 FROM run_results rr JOIN runs r ON r.id = rr.run_id
		 WHERE rr.test = ? AND r.solver = ? AND r.mode = ?
		 ORDER BY r.started_at DESC`,
		test, solverName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query case history: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Test, &r.TimeSec, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

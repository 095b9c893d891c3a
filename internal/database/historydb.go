package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/desyncdiff/internal/model"
)

// HistoryDB provides SQLite-based storage for analysis runs.
//
// Design decision: We store one row per run plus one row per role
// comparison rather than serializing the whole report into a blob. The
// per-role rows make "which artifact diverged" queryable without JSON
// extraction, while full diff details stay in the report files.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "desyncdiff.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per analyzed desync report
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_path TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		differs INTEGER NOT NULL,
		first_divergence TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_report ON runs(report_path);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- One row per role comparison inside a run
	CREATE TABLE IF NOT EXISTS run_roles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		role TEXT NOT NULL,
		differs INTEGER NOT NULL,
		ref_digest TEXT,
		des_digest TEXT,
		entry_count INTEGER NOT NULL,
		block_count INTEGER NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_run_roles_run ON run_roles(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_roles_role ON run_roles(role);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one stored analysis run.
type Run struct {
	ID              int64
	ReportPath      string
	Timestamp       time.Time
	Differs         bool
	FirstDivergence string
}

// RoleResult is one stored role comparison.
type RoleResult struct {
	ID           int64
	RunID        int64
	Role         string
	Differs      bool
	RefDigest    string
	DesDigest    string
	EntryCount   int
	BlockCount   int
	ErrorMessage string
}

// SaveReport stores one analysis report as a run with its role rows.
// The whole insert runs in a transaction so a partially stored run
// never appears in listings.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	first := ""
	for _, section := range report.Sections {
		if div := section.FirstDivergence(); div != "" {
			first = fmt.Sprintf("%s: %s", section.Role, div)
			break
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (report_path, differs, first_divergence) VALUES (?, ?, ?)`,
		report.ReportPath, boolToInt(report.Differs()), first,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, section := range report.Sections {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_roles (run_id, role, differs, ref_digest, des_digest, entry_count, block_count, error_message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			section.Role.String(),
			boolToInt(section.Differs),
			section.RefDigest,
			section.DesDigest,
			len(section.Entries),
			len(section.Blocks),
			section.ErrorMessage,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert role row for %s: %w", section.Role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RecentRuns returns the most recent runs, newest first.
func (hdb *HistoryDB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT id, report_path, timestamp, differs, first_divergence
		 FROM runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []Run
	for rows.Next() {
		var r Run
		var differs int
		if err := rows.Scan(&r.ID, &r.ReportPath, &r.Timestamp, &differs, &r.FirstDivergence); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Differs = differs != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunRoles returns the role comparisons stored for one run.
func (hdb *HistoryDB) RunRoles(ctx context.Context, runID int64) ([]RoleResult, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT id, run_id, role, differs, ref_digest, des_digest, entry_count, block_count, error_message
		 FROM run_roles WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query role rows: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []RoleResult
	for rows.Next() {
		var rr RoleResult
		var differs int
		if err := rows.Scan(&rr.ID, &rr.RunID, &rr.Role, &differs, &rr.RefDigest, &rr.DesDigest,
			&rr.EntryCount, &rr.BlockCount, &rr.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", err)
		}
		rr.Differs = differs != 0
		results = append(results, rr)
	}
	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

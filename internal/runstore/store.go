// Package runstore persists scenario run history in SQLite so past runs can
// be listed and inspected after their working directories are cleaned up.
package runstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"satkit/internal/config"
	"satkit/internal/scenario"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users need to delete the run history database afterwards.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID         string
	Scenario   string
	WorkingDir string
	StartedAt  time.Time
	FinishedAt time.Time
	Reused     int
	Generated  int
	Failed     int
}

// ItemRecord is one persisted per-item outcome.
type ItemRecord struct {
	Index          int
	Kind           string
	SourcePath     string
	Fingerprint    string
	Outcome        string
	Location       string
	StaleRecovered bool
	Error          string
}

// Open initializes or connects to the run history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.RunHistoryDB
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordRun persists a run report and its per-item outcomes in one
// transaction.
func (s *Store) RecordRun(ctx context.Context, report *scenario.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	reused, generated, failed := report.Counts()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, working_dir, started_at, finished_at, reused, generated, failed)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Scenario,
		report.WorkingDir,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		reused,
		generated,
		failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, item := range report.Items {
		var itemErr any
		if item.Err != nil {
			itemErr = item.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_items (run_id, item_index, kind, source_path, fingerprint, outcome, location, stale_recovered, error)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			item.Index,
			item.Kind,
			item.SourcePath,
			item.Fingerprint,
			string(item.Outcome),
			item.Location,
			item.StaleRecovered,
			itemErr,
		)
		if err != nil {
			return fmt.Errorf("insert run item %d: %w", item.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0 returns
// everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT id, scenario, working_dir, started_at, finished_at, reused, generated, failed
              FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run                  RunSummary
			startedAt, finishedAt string
		)
		if err := rows.Scan(&run.ID, &run.Scenario, &run.WorkingDir, &startedAt, &finishedAt,
			&run.Reused, &run.Generated, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Items returns the persisted item outcomes of one run in scenario order.
func (s *Store) Items(ctx context.Context, runID string) ([]ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_index, kind, source_path, fingerprint, outcome, location, stale_recovered, error
         FROM run_items WHERE run_id = ? ORDER BY item_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var (
			item    ItemRecord
			itemErr sql.NullString
		)
		if err := rows.Scan(&item.Index, &item.Kind, &item.SourcePath, &item.Fingerprint,
			&item.Outcome, &item.Location, &item.StaleRecovered, &itemErr); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.Error = itemErr.String
		items = append(items, item)
	}
	return items, rows.Err()
}

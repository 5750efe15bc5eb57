// Package history persists a record of each backup run to a small SQLite
// database, adapted from this codebase's other SQLite-backed store but
// with a schema of its own: one row per run plus one row per source,
// rather than a content-addressable file/snapshot model.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"frontdown/internal/backup"
	"frontdown/internal/history/migrations"
)

// Store records and queries backup run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite-backed Store at path, or an
// in-memory one when path is ":memory:", and brings its schema up to
// date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one recorded backup job invocation.
type Run struct {
	ID           string
	ConfigPath   string
	Mode         string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Successful   sql.NullBool
	ScanErrors   int64
	BackupErrors int64
	FilesCopied  int64
	BytesCopied  int64
	Sources      []RunSource
}

// RunSource is one source's outcome within a Run.
type RunSource struct {
	Name        string
	SourceRoot  string
	InstanceDir string
	Successful  bool
}

// RecordStart inserts a run row before the job executes, so a crash mid-run
// still leaves a trace with no finish time.
func (s *Store) RecordStart(ctx context.Context, id, configPath, mode string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, config_path, mode, started_at) VALUES (?, ?, ?, ?)`,
		id, configPath, mode, startedAt)
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// RecordFinish updates the run row with its outcome, aggregated statistics,
// and per-source results.
func (s *Store) RecordFinish(ctx context.Context, id string, finishedAt time.Time, result *backup.JobResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var scanErrors, backupErrors, filesCopied, bytesCopied int64
	if result.Statistics != nil {
		snap := result.Statistics.Snapshot()
		scanErrors = snap.ScanErrors
		backupErrors = snap.BackupErrors
		filesCopied = snap.FilesCopied
		bytesCopied = snap.BytesCopied
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, successful = ?, scan_errors = ?, backup_errors = ?, files_copied = ?, bytes_copied = ? WHERE id = ?`,
		finishedAt, result.Success, scanErrors, backupErrors, filesCopied, bytesCopied, id)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}

	for _, src := range result.Sources {
		successful := !src.Skipped
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_sources (run_id, name, source_root, instance_dir, successful) VALUES (?, ?, ?, ?, ?)`,
			id, src.Name, "", result.InstanceDir, successful)
		if err != nil {
			return fmt.Errorf("recording run source %s: %w", src.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run record: %w", err)
	}
	return nil
}

// Recent returns the most recent limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, config_path, mode, started_at, finished_at, successful, scan_errors, backup_errors, files_copied, bytes_copied
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ConfigPath, &r.Mode, &r.StartedAt, &r.FinishedAt, &r.Successful,
			&r.ScanErrors, &r.BackupErrors, &r.FilesCopied, &r.BytesCopied); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

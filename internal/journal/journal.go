// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records migrated preset files in a SQLite database so a
// second run can recognise files it already converted.
// Implements: docs/ARCHITECTURE § Journal.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeFormat has fixed-width fractional seconds so stored timestamps sort
// lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one migrated preset file.
type Entry struct {
	// Path is the absolute path of the preset file.
	Path string `json:"path" yaml:"path"`

	// SourceSHA256 is the digest of the file before migration.
	SourceSHA256 string `json:"source_sha256" yaml:"source_sha256"`

	// ResultSHA256 is the digest of the file as written by the migration.
	ResultSHA256 string `json:"result_sha256" yaml:"result_sha256"`

	// Parameters is the number of rewritten parameter values.
	Parameters int `json:"parameters" yaml:"parameters"`

	MigratedAt time.Time `json:"migrated_at" yaml:"migrated_at"`
}

// Journal manages the migration journal database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path, creating its parent
// directory and schema when needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema %s: %w", path, err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	_, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		path TEXT PRIMARY KEY,
		source_sha256 TEXT NOT NULL,
		result_sha256 TEXT NOT NULL,
		parameters INTEGER NOT NULL,
		migrated_at TEXT NOT NULL
	)`)
	return err
}

// Migrated reports whether the file at path was written by a previous
// migration and has not changed since: its current digest sum equals the
// recorded result digest.
func (j *Journal) Migrated(ctx context.Context, path, sum string) (bool, error) {
	var stored string
	err := j.db.QueryRowContext(ctx,
		`SELECT result_sha256 FROM migrations WHERE path = ?`, path,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", path, err)
	}
	return stored == sum, nil
}

// Record stores e, replacing any earlier entry for the same path.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.MigratedAt.IsZero() {
		e.MigratedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO migrations (path, source_sha256, result_sha256, parameters, migrated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			source_sha256 = excluded.source_sha256,
			result_sha256 = excluded.result_sha256,
			parameters = excluded.parameters,
			migrated_at = excluded.migrated_at`,
		e.Path, e.SourceSHA256, e.ResultSHA256, e.Parameters,
		e.MigratedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.Path, err)
	}
	return nil
}

// Entries returns every journal entry ordered by migration time, then path.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT path, source_sha256, result_sha256, parameters, migrated_at
		FROM migrations ORDER BY migrated_at, path`)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.Path, &e.SourceSHA256, &e.ResultSHA256, &e.Parameters, &ts); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.MigratedAt, err = time.Parse(timeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing migrated_at for %s: %w", e.Path, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

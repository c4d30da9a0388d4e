// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a ledger of finished conversion runs in SQLite.
// It records what happened; it never restores a session's live state.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf2word/pkg/types"
)

const (
	dbFile       = "history.db"
	defaultLimit = 50
)

// Store manages the history database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates dir/history.db and its schema.
func Open(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			original_name TEXT NOT NULL,
			original_size INTEGER NOT NULL,
			converted_name TEXT,
			converted_size INTEGER,
			engine TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_outcome ON conversions(outcome)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one finished run and returns its ID.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) (int64, error) {
	var convName sql.NullString
	var convSize sql.NullInt64
	if rec.Converted != nil {
		convName = sql.NullString{String: rec.Converted.Name, Valid: true}
		convSize = sql.NullInt64{Int64: rec.Converted.Size, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (original_name, original_size, converted_name, converted_size,
			engine, outcome, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Original.Name, rec.Original.Size, convName, convSize,
		rec.Engine, string(rec.Outcome), rec.Error,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("recording conversion of %s: %w", rec.Original.Name, err)
	}
	return res.LastInsertId()
}

// ListOptions filters List.
type ListOptions struct {
	// Outcome restricts results to one outcome; empty means all.
	Outcome types.Outcome

	// Limit caps the number of rows (0 = default of 50, negative = no cap).
	Limit int
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.ConversionRecord, error) {
	query := `SELECT id, original_name, original_size, converted_name, converted_size,
		engine, outcome, error, started_at, finished_at FROM conversions`
	var args []any
	if opts.Outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, string(opts.Outcome))
	}
	query += ` ORDER BY id DESC`

	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			rec                 types.ConversionRecord
			convName, errMsg    sql.NullString
			convSize            sql.NullInt64
			outcome             string
			startedAt, finished string
		)
		if err := rows.Scan(&rec.ID, &rec.Original.Name, &rec.Original.Size, &convName, &convSize,
			&rec.Engine, &outcome, &errMsg, &startedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.Outcome = types.Outcome(outcome)
		rec.Error = errMsg.String
		if convName.Valid {
			rec.Converted = &types.FileDescriptor{Name: convName.String, Size: convSize.Int64}
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/serp-evals/pkg/types"
)

// Store keeps result tables in a SQLite database. Every Write appends a new
// run; reads return the most recent run.
type Store struct {
	db *sql.DB
}

// Run describes one table written to a Store.
type Run struct {
	ID        string
	CreatedAt time.Time
	Columns   []string
	Rows      int
}

// OpenStore opens or creates the SQLite store at path and ensures the
// schema exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			columns TEXT NOT NULL,
			row_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			query TEXT NOT NULL,
			title TEXT,
			url TEXT,
			snippet TEXT,
			creation_date TEXT,
			modified_date TEXT,
			rank INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_query ON results(query)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores records as a new run in one transaction and returns the
// run ID. Columns not listed are stored empty.
func (s *Store) SaveRun(ctx context.Context, records []types.Record, columns []string) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, columns, row_count) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), strings.Join(columns, ","), len(records),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, query, title, url, snippet, creation_date, modified_date, rank)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	field := func(r types.Record, col string) string {
		if !slices.Contains(columns, col) {
			return ""
		}
		return r.Field(col)
	}

	for i, r := range records {
		var rank sql.NullInt64
		if slices.Contains(columns, types.ColRank) && r.Rank > 0 {
			rank = sql.NullInt64{Int64: int64(r.Rank), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, runID,
			r.Query,
			field(r, types.ColTitle),
			field(r, types.ColURL),
			field(r, types.ColSnippet),
			field(r, types.ColCreationDate),
			field(r, types.ColModifiedDate),
			rank,
		)
		if err != nil {
			return "", fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, columns, row_count FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			created string
			columns string
		)
		if err := rows.Scan(&run.ID, &created, &columns, &run.Rows); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		if columns != "" {
			run.Columns = strings.Split(columns, ",")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadRun returns the records of one run in insertion order.
func (s *Store) LoadRun(ctx context.Context, runID string) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, title, url, snippet, creation_date, modified_date, rank
		 FROM results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			r                                               types.Record
			title, url, snippet, creationDate, modifiedDate sql.NullString
			rank                                            sql.NullInt64
		)
		if err := rows.Scan(&r.Query, &title, &url, &snippet, &creationDate, &modifiedDate, &rank); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.Title = title.String
		r.URL = url.String
		r.Snippet = snippet.String
		r.CreationDate = creationDate.String
		r.ModifiedDate = modifiedDate.String
		if rank.Valid {
			r.Rank = int(rank.Int64)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LoadLatest returns the records of the most recently written run. A store
// with no runs yields an empty table.
func (s *Store) LoadLatest(ctx context.Context) ([]types.Record, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY rowid DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest run: %w", err)
	}
	return s.LoadRun(ctx, runID)
}

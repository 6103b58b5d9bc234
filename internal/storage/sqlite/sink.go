// Package sqlite implements a SQLite report sink using database/sql. SQLite
// keeps single-machine runs dependency-free while still giving reports a
// queryable home.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	// SQLite driver (pure Go).
	_ "modernc.org/sqlite"

	"conform/internal/profile"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "profile_reports"

// Config holds SQLite sink configuration.
type Config struct {
	DSN   string // passed directly to database/sql, e.g. "file:conform.db" or "conform.db"
	Table string
}

// Sink writes one row per finished report with the full report as JSON text.
type Sink struct {
	db    *sql.DB
	table string
}

// Open opens the database, ensures the reports table exists, and returns the
// sink. The ping fails fast on invalid DSNs.
func Open(ctx context.Context, cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	s := &Sink{db: db, table: cfg.Table}
	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  job TEXT NOT NULL,
  finalized_at TEXT NOT NULL,
  row_count INTEGER NOT NULL,
  batch_count INTEGER NOT NULL,
  report TEXT NOT NULL
);`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: ensure table %s: %w", s.table, err)
	}
	return nil
}

// SaveReport inserts one report row. Timestamps are stored as RFC 3339 text.
func (s *Sink) SaveReport(ctx context.Context, rep *profile.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("sqlite: encode report: %w", err)
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (job, finalized_at, row_count, batch_count, report) VALUES (?, ?, ?, ?, ?)",
		s.table,
	)
	_, err = s.db.ExecContext(ctx, insert,
		rep.Job,
		rep.FinalizedAt.UTC().Format(time.RFC3339Nano),
		rep.Rows,
		rep.Batches,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert report: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Sink) Close() error { return s.db.Close() }

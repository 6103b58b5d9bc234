// Package postgres implements a Postgres report sink using pgx v5.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"conform/internal/profile"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "profile_reports"

// Config holds Postgres sink configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // possibly schema-qualified target table, e.g. "public.profile_reports"
}

// Sink writes one row per finished report, with the full report as JSONB so
// ad-hoc queries can reach into columns and anomalies.
type Sink struct {
	pool  *pgxpool.Pool
	table string
}

// Open connects, ensures the reports table exists, and returns the sink.
func Open(ctx context.Context, cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	s := &Sink{pool: pool, table: cfg.Table}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  job TEXT NOT NULL,
  finalized_at TIMESTAMPTZ NOT NULL,
  row_count BIGINT NOT NULL,
  batch_count BIGINT NOT NULL,
  report JSONB NOT NULL
);`, pgFQN(s.table))
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: ensure table %s: %w", s.table, err)
	}
	return nil
}

// SaveReport inserts one report row.
func (s *Sink) SaveReport(ctx context.Context, rep *profile.Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("postgres: encode report: %w", err)
	}
	insert := fmt.Sprintf(
		"INSERT INTO %s (job, finalized_at, row_count, batch_count, report) VALUES ($1, $2, $3, $4, $5)",
		pgFQN(s.table),
	)
	if _, err := s.pool.Exec(ctx, insert, rep.Job, rep.FinalizedAt, rep.Rows, rep.Batches, body); err != nil {
		return fmt.Errorf("postgres: insert report: %w", err)
	}
	return nil
}

// ApplyDDL executes a rendered DDL statement, typically the CREATE TABLE for
// a conformed schema. The statement is run as-is; callers own its dialect.
func (s *Sink) ApplyDDL(ctx context.Context, stmt string) error {
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: apply ddl: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

// pgIdent quotes a single identifier.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.profile_reports"
// to "public"."profile_reports". If no dot is present, returns a single
// quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

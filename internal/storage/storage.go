// Package storage persists finished profile reports.
//
// It mirrors the metrics abstraction: a narrow interface (Sink) with concrete
// database backends isolated in subpackages, so the profiler core never
// imports a driver.
package storage

import (
	"context"
	"fmt"

	"conform/internal/config"
	"conform/internal/profile"
	"conform/internal/storage/mssql"
	"conform/internal/storage/postgres"
	"conform/internal/storage/sqlite"
)

// Sink stores one report per profiling run.
type Sink interface {
	SaveReport(ctx context.Context, rep *profile.Report) error
	Close() error
}

// nopSink is returned when no storage backend is configured.
type nopSink struct{}

func (nopSink) SaveReport(context.Context, *profile.Report) error { return nil }
func (nopSink) Close() error                                      { return nil }

// Open constructs the sink named by cfg.Kind. An empty kind (or "none")
// yields a sink that discards reports, so callers never need to branch.
func Open(ctx context.Context, cfg config.Storage) (Sink, error) {
	switch cfg.Kind {
	case "", "none":
		return nopSink{}, nil
	case "postgres":
		return postgres.Open(ctx, postgres.Config{DSN: cfg.DB.DSN, Table: cfg.DB.Table})
	case "sqlite":
		return sqlite.Open(ctx, sqlite.Config{DSN: cfg.DB.DSN, Table: cfg.DB.Table})
	case "mssql":
		return mssql.Open(ctx, mssql.Config{DSN: cfg.DB.DSN, Table: cfg.DB.Table})
	default:
		return nil, fmt.Errorf("storage: unknown kind %q", cfg.Kind)
	}
}

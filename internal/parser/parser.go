// Package parser selects and constructs input parsers.
package parser

import (
	"context"
	"fmt"
	"io"

	"conform/internal/config"
	"conform/internal/parser/csv"
	"conform/internal/parser/jsonl"
	"conform/pkg/records"
)

// Parser streams typed row batches from raw input. Implementations send
// batches to out and return on EOF, fatal error, or context cancellation;
// the caller owns the channel.
type Parser interface {
	Stream(ctx context.Context, r io.Reader, out chan<- records.Batch) error
}

// New constructs the parser named by kind ("csv" or "jsonl").
// onRowError, when non-nil, receives recoverable per-row errors.
func New(kind string, opt config.Options, batchSize int, onRowError func(line int, err error)) (Parser, error) {
	switch kind {
	case "csv":
		p := csv.New(opt, batchSize)
		p.OnRowError = onRowError
		return p, nil
	case "jsonl":
		p := jsonl.New(opt, batchSize)
		p.OnRowError = onRowError
		return p, nil
	default:
		return nil, fmt.Errorf("parser: unknown kind %q", kind)
	}
}

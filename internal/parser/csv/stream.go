// Package csv parses delimited text into typed row batches.
//
// The parser streams: it never loads the whole input, reuses the csv.Reader
// record buffer, and emits records.Batch values of a configurable size on a
// channel so profiling workers can consume them concurrently.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"conform/internal/config"
	"conform/internal/schema"
	"conform/pkg/records"
	"conform/pkg/value"
)

// DefaultBatchSize is used when the caller does not configure one.
const DefaultBatchSize = 1024

// Parser streams CSV into typed batches.
//
// Tuning/robustness (all optional via options):
//   - has_header (bool; default true)
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default true)
//   - lazy_quotes (bool; default false) -> csv.Reader.LazyQuotes
//   - fields_per_record (int; 0=variable, >0=enforce)
//   - raw_strings (bool; default false) -> skip lexical typing, all cells text
type Parser struct {
	opt       config.Options
	batchSize int

	// OnRowError receives recoverable row errors (soft-drop). May be nil.
	OnRowError func(line int, err error)
}

// New constructs a CSV parser. batchSize <= 0 selects DefaultBatchSize.
func New(opt config.Options, batchSize int) *Parser {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Parser{opt: opt, batchSize: batchSize}
}

// Stream reads CSV from r and sends typed batches to out until EOF, a fatal
// read error, or context cancellation. It does not close out; the caller owns
// the channel.
//
// Header handling:
//   - If has_header, the first line is read, BOM-stripped, and each cell is
//     normalized into a column name. Duplicate names get a numeric suffix.
//   - Without a header, columns are named positionally from the first row:
//     col_1, col_2, ...
//
// Short rows fill missing columns with null; long rows report a recoverable
// error and drop the extra cells.
func (p *Parser) Stream(ctx context.Context, r io.Reader, out chan<- records.Batch) error {
	hasHeader := p.opt.Bool("has_header", true)
	trim := p.opt.Bool("trim_space", true)
	raw := p.opt.Bool("raw_strings", false)

	cr := csv.NewReader(r)
	cr.Comma = p.opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.LazyQuotes = p.opt.Bool("lazy_quotes", false)
	if n := p.opt.Int("fields_per_record", 0); n > 0 {
		cr.FieldsPerRecord = n
	} else {
		cr.FieldsPerRecord = -1 // tolerant by default
	}

	line := 0
	read := func() ([]string, error) { line++; return cr.Read() }

	var columns []string
	if hasHeader {
		hdr, err := read()
		if err != nil {
			if err == io.EOF {
				return nil // empty input
			}
			return fmt.Errorf("csv: read header: %w", err)
		}
		columns = headerColumns(stripHeaderBOM(hdr))
	}

	batch := records.New(columns)
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		select {
		case out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = records.New(columns)
		return nil
	}

	for {
		// cooperative cancel
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := read()
		if err == io.EOF {
			return flush()
		}
		if err != nil {
			if p.OnRowError != nil {
				p.OnRowError(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}

		if columns == nil {
			// Positional names from the first data row.
			columns = make([]string, len(rec))
			for i := range rec {
				columns[i] = fmt.Sprintf("col_%d", i+1)
			}
			batch = records.New(columns)
		}
		if len(rec) > len(columns) && p.OnRowError != nil {
			p.OnRowError(line, fmt.Errorf("csv: row has %d cells, expected %d", len(rec), len(columns)))
		}

		row := make(records.Row, len(columns))
		for i, col := range columns {
			if i >= len(rec) {
				row[col] = value.Null()
				continue
			}
			cell := rec[i]
			if trim {
				cell = strings.TrimSpace(cell)
			}
			if raw {
				if cell == "" {
					row[col] = value.Null()
				} else {
					row[col] = value.Str(cell)
				}
				continue
			}
			row[col] = TypeCell(cell)
		}
		batch.Append(row)

		if batch.Len() >= p.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// headerColumns normalizes raw header cells into unique column names.
func headerColumns(hdr []string) []string {
	out := make([]string, len(hdr))
	seen := make(map[string]int, len(hdr))
	for i, h := range hdr {
		name := schema.NormalizeName(h)
		base := name
		for n := seen[base]; seen[name] > 0; n++ {
			name = fmt.Sprintf("%s_%d", base, n+1)
			seen[base] = n + 1
		}
		seen[name]++
		out[i] = schema.TruncateName(name)
	}
	return out
}

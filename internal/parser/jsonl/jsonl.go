// Package jsonl parses JSON record streams into typed row batches.
//
// It is deliberately simple and conservative:
//
//   - Supports newline-delimited JSON objects (NDJSON):
//     {"id":1,"name":"a"}
//     {"id":2,"name":"b"}
//   - Also supports a top-level JSON array of objects when the
//     "allow_arrays" option is set (default true), expanded element by
//     element.
//   - Non-object values in the stream are reported as recoverable row
//     errors and skipped.
//
// Because JSON objects carry no fixed column set, the parser grows the
// column list as new keys appear. A batch always has a single column set;
// when a record introduces a key the current batch has not seen, the batch
// is flushed first and the next batch carries the extended list. Keys new
// to the stream are appended in sorted order within each record, so the
// resulting column order is deterministic for a given input.
package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"conform/internal/config"
	"conform/internal/schema"
	"conform/pkg/records"
	"conform/pkg/value"
)

// DefaultBatchSize is used when the caller does not configure one.
const DefaultBatchSize = 1024

// Parser streams JSON records into typed batches.
//
// Options:
//   - allow_arrays (bool; default true): accept a top-level array of objects
//   - normalize_names (bool; default true): canonicalize JSON keys into
//     column names the same way CSV headers are
type Parser struct {
	opt       config.Options
	batchSize int

	// OnRowError receives recoverable record errors (soft-drop). May be nil.
	OnRowError func(line int, err error)
}

// New constructs a JSON parser. batchSize <= 0 selects DefaultBatchSize.
func New(opt config.Options, batchSize int) *Parser {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Parser{opt: opt, batchSize: batchSize}
}

// Stream decodes JSON from r and sends typed batches to out until EOF, a
// fatal decode error, or context cancellation. It does not close out.
func (p *Parser) Stream(ctx context.Context, r io.Reader, out chan<- records.Batch) error {
	allowArrays := p.opt.Bool("allow_arrays", true)
	normalize := p.opt.Bool("normalize_names", true)

	dec := json.NewDecoder(r)
	// UseNumber so integers survive the round trip instead of collapsing
	// to float64.
	dec.UseNumber()

	var (
		columns []string
		colSet  = map[string]bool{}
		batch   records.Batch
		line    int
	)

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

	emit := func(obj map[string]any) error {
		// Canonicalize keys first so column identity matches the CSV path.
		canon := make(map[string]value.Value, len(obj))
		for k, raw := range obj {
			name := k
			if normalize {
				name = schema.TruncateName(schema.NormalizeName(k))
			}
			canon[name] = typeJSON(raw)
		}

		// Collect unseen keys; extend the column set between batches only.
		var fresh []string
		for name := range canon {
			if !colSet[name] {
				fresh = append(fresh, name)
			}
		}
		if len(fresh) > 0 {
			if err := flush(); err != nil {
				return err
			}
			sort.Strings(fresh)
			for _, name := range fresh {
				colSet[name] = true
			}
			columns = append(append([]string(nil), columns...), fresh...)
			batch = records.New(columns)
		}

		row := make(records.Row, len(columns))
		for _, col := range columns {
			if v, ok := canon[col]; ok {
				row[col] = v
			} else {
				row[col] = value.Null()
			}
		}
		batch.Append(row)

		if batch.Len() >= p.batchSize {
			return flush()
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var root any
		if err := dec.Decode(&root); err != nil {
			if err == io.EOF {
				return flush()
			}
			return fmt.Errorf("jsonl: decode: %w", err)
		}
		line++

		switch v := root.(type) {
		case map[string]any:
			if err := emit(v); err != nil {
				return err
			}
		case []any:
			if !allowArrays {
				return fmt.Errorf("jsonl: top-level array encountered but allow_arrays=false")
			}
			for i, elem := range v {
				obj, ok := elem.(map[string]any)
				if !ok {
					if p.OnRowError != nil {
						p.OnRowError(line, fmt.Errorf("jsonl: array element %d is not an object", i))
					}
					continue
				}
				if err := emit(obj); err != nil {
					return err
				}
			}
		default:
			if p.OnRowError != nil {
				p.OnRowError(line, fmt.Errorf("jsonl: unsupported top-level JSON type %T", v))
			}
		}
	}
}

// typeJSON maps a decoded JSON value onto a typed cell. Nested objects and
// arrays are re-encoded as compact JSON text.
func typeJSON(raw any) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return value.Int(i)
		}
		if f, err := v.Float64(); err == nil {
			return value.Float(f)
		}
		return value.Str(v.String())
	case string:
		return value.Str(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return value.Str(fmt.Sprintf("%v", v))
		}
		return value.Str(string(b))
	}
}

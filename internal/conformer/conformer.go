// Package conformer casts raw row batches onto a resolved schema. It is the
// step after inference: once a run has settled on column types, batches can
// be conformed so every cell carries its column's declared type.
package conformer

import (
	"fmt"
	"strconv"
	"strings"

	"conform/internal/schema"
	"conform/pkg/records"
	"conform/pkg/value"
)

// Conformer casts cells to their column's declared type.
//
// Cells that cannot be cast are replaced with null and counted, unless
// Strict is set, in which case the first failure aborts the batch.
type Conformer struct {
	Schema schema.Schema
	Strict bool
}

// Result summarizes one Apply call.
type Result struct {
	// Casts counts successfully converted cells (cells whose kind changed).
	Casts int64
	// Failures counts cells per column that could not be cast and were nulled.
	Failures map[string]int64
}

// Apply returns a copy of b whose cells are cast to the schema's column
// types. Columns absent from the schema pass through unchanged; nulls are
// always preserved.
func (c Conformer) Apply(b records.Batch) (records.Batch, Result, error) {
	res := Result{Failures: map[string]int64{}}

	types := make(map[string]schema.ColumnType, len(c.Schema.Columns))
	for _, col := range c.Schema.Columns {
		types[col.Name] = col.Type
	}

	out := records.New(b.Columns)
	for i, row := range b.Rows {
		conformed := make(records.Row, len(row))
		for col, v := range row {
			t, ok := types[col]
			if !ok || t == schema.TypeUnknown || v.IsNull() {
				conformed[col] = v
				continue
			}
			cast, ok := Cast(v, t)
			if !ok {
				if c.Strict {
					return records.Batch{}, res, fmt.Errorf("conformer: row %d column %q: cannot cast %s to %s", i, col, v.Kind(), t)
				}
				res.Failures[col]++
				conformed[col] = value.Null()
				continue
			}
			if cast.Kind() != v.Kind() {
				res.Casts++
			}
			conformed[col] = cast
		}
		out.Append(conformed)
	}
	return out, res, nil
}

// Cast converts a single non-null cell to the target column type. The
// second result reports whether the conversion was possible.
func Cast(v value.Value, t schema.ColumnType) (value.Value, bool) {
	switch t {
	case schema.TypeText:
		if v.Kind() == value.KindString {
			return v, true
		}
		if v.Kind() == value.KindBytes {
			return value.Str(string(v.AsBytes())), true
		}
		return value.Str(v.String()), true

	case schema.TypeInteger:
		switch v.Kind() {
		case value.KindInt64:
			return v, true
		case value.KindFloat64:
			f := v.AsFloat()
			i := int64(f)
			if float64(i) == f {
				return value.Int(i), true
			}
			return value.Null(), false
		case value.KindString:
			if i, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64); err == nil {
				return value.Int(i), true
			}
			return value.Null(), false
		}
		return value.Null(), false

	case schema.TypeReal:
		switch v.Kind() {
		case value.KindFloat64:
			return v, true
		case value.KindInt64:
			return value.Float(float64(v.AsInt())), true
		case value.KindString:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64); err == nil {
				return value.Float(f), true
			}
			return value.Null(), false
		}
		return value.Null(), false

	case schema.TypeBoolean:
		switch v.Kind() {
		case value.KindBool:
			return v, true
		case value.KindString:
			if b, err := strconv.ParseBool(strings.TrimSpace(v.AsString())); err == nil {
				return value.Bool(b), true
			}
			return value.Null(), false
		}
		return value.Null(), false

	case schema.TypeBytes:
		switch v.Kind() {
		case value.KindBytes:
			return v, true
		case value.KindString:
			return value.Bytes([]byte(v.AsString())), true
		}
		return value.Null(), false
	}
	return value.Null(), false
}

// Package schema defines the canonical column schema produced by the
// profiling core and the JSON contract format for caller-supplied expected
// schemas. Canonical type names reuse the SQL-ish vocabulary used across the
// project ("integer", "real", "text", ...), so they flow directly into DDL
// generation and report output.
package schema

import (
	"fmt"

	"conform/pkg/value"
)

// ColumnType is the canonical, normalized type assigned to a column.
type ColumnType string

const (
	TypeUnknown ColumnType = "unknown"
	TypeBoolean ColumnType = "boolean"
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeText    ColumnType = "text"
	TypeBytes   ColumnType = "bytes"
)

// ParseColumnType normalizes a loosely-specified type name from a contract
// file into a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "unknown":
		return TypeUnknown, nil
	case "bool", "boolean":
		return TypeBoolean, nil
	case "int", "integer", "bigint":
		return TypeInteger, nil
	case "real", "float", "double":
		return TypeReal, nil
	case "text", "string":
		return TypeText, nil
	case "bytes", "blob":
		return TypeBytes, nil
	default:
		return "", fmt.Errorf("schema: unknown column type %q", s)
	}
}

// TypeOfKind maps a cell kind onto its canonical column type.
func TypeOfKind(k value.Kind) ColumnType {
	switch k {
	case value.KindBool:
		return TypeBoolean
	case value.KindInt64:
		return TypeInteger
	case value.KindFloat64:
		return TypeReal
	case value.KindString:
		return TypeText
	case value.KindBytes:
		return TypeBytes
	default:
		return TypeUnknown
	}
}

// widenRank places the numeric-to-text promotion chain on a totally ordered
// scale: integer ⊂ real ⊂ text. Types outside the chain return ok=false.
func widenRank(t ColumnType) (int, bool) {
	switch t {
	case TypeInteger:
		return 1, true
	case TypeReal:
		return 2, true
	case TypeText:
		return 3, true
	default:
		return 0, false
	}
}

// Narrower reports whether a is strictly narrower than b under the promotion
// chain. Unknown is narrower than every concrete type: an unobserved column
// contradicts nothing.
func Narrower(a, b ColumnType) bool {
	if a == b {
		return false
	}
	if a == TypeUnknown {
		return b != TypeUnknown
	}
	ra, aok := widenRank(a)
	rb, bok := widenRank(b)
	return aok && bok && ra < rb
}

// ColumnDef describes one column of the final schema.
type ColumnDef struct {
	Name string `json:"name"`

	Type ColumnType `json:"type"`

	// Nullable is true when null values were observed (or the column was
	// never observed at all).
	Nullable bool `json:"nullable"`

	// Confidence is the dominant type bucket's share among non-null values
	// at inference time, in [0,1]. Carried through reconciliation.
	Confidence float64 `json:"confidence"`
}

// Schema is an ordered column list. Order is deterministic: expected-schema
// columns first in their original order, then newly observed columns in
// first-seen order.
type Schema struct {
	Columns []ColumnDef `json:"columns"`
}

// Find returns the definition for name and whether it exists.
func (s Schema) Find(name string) (ColumnDef, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

package csv

import (
	"math"
	"strconv"
	"strings"

	"conform/pkg/value"
)

// TypeCell converts one raw CSV cell into a typed value.
//
// The lexical rules are deliberately narrow so that per-cell typing stays
// stable across a column:
//
//   - ""                      -> null
//   - signed base-10 int64    -> integer
//   - decimal/scientific      -> real
//   - true/false (any case)   -> boolean
//   - everything else         -> text
//
// Integer is tried before real so "42" stays an integer; boolean accepts only
// the literal words, since "1"/"0"/"t"/"f" are too ambiguous to claim per cell.
// Non-finite spellings accepted by strconv ("NaN", "Inf", "Infinity") are
// typed as text; in a numeric column they show up as a minority bucket.
func TypeCell(s string) value.Value {
	if s == "" {
		return value.Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return value.Float(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	}
	return value.Str(s)
}

const utf8BOM = "\uFEFF"

// stripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func stripHeaderBOM(headers []string) []string {
	if len(headers) == 0 {
		return headers
	}
	if strings.HasPrefix(headers[0], utf8BOM) {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}

// Package records defines the batch shape handed from source adapters to the
// profiling core. A batch is an ordered row group in which every row carries
// exactly the batch's declared columns; missing values are explicit nulls,
// never absent keys. The profiler enforces this invariant and aborts the
// session when it is violated.
package records

import "conform/pkg/value"

// Row maps column name to cell value.
type Row map[string]value.Value

// Batch is an ordered sequence of rows sharing one column set.
type Batch struct {
	// Columns is the declared column set, in source order. The order is
	// significant: it determines first-seen column order in the final schema.
	Columns []string

	// Rows are the data rows. Every row must have exactly the declared
	// columns.
	Rows []Row
}

// New returns an empty batch with the given column set.
func New(columns []string) Batch {
	return Batch{Columns: columns}
}

// Append adds a row to the batch.
func (b *Batch) Append(r Row) { b.Rows = append(b.Rows, r) }

// Len returns the number of rows.
func (b *Batch) Len() int { return len(b.Rows) }

// Conforms reports whether r carries exactly the batch's declared columns,
// returning the offending column name when it does not. An empty name with
// ok=false means the row has extra columns beyond the declared set.
func (b *Batch) Conforms(r Row) (string, bool) {
	for _, c := range b.Columns {
		if _, present := r[c]; !present {
			return c, false
		}
	}
	if len(r) != len(b.Columns) {
		return "", false
	}
	return "", true
}

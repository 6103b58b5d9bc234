package profile

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fatal failure modes of a profiling session. Both
// abort the session: no partial schema or report is ever produced after one
// of these surfaces.
var (
	// ErrSchemaMismatch means a batch's rows disagree on the column set.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrAggregationOverflow means numeric accumulation produced an
	// unrepresentable value (non-finite moments, counter overflow).
	ErrAggregationOverflow = errors.New("aggregation overflow")

	// ErrSessionClosed means a batch arrived after finalization began, or
	// the session was already aborted or cancelled.
	ErrSessionClosed = errors.New("session closed")
)

// SchemaMismatchError carries the location of a column-set violation inside
// a batch. It unwraps to ErrSchemaMismatch.
type SchemaMismatchError struct {
	// Row is the offending row index within the batch.
	Row int

	// Column is the declared column missing from the row; empty when the
	// row carried columns beyond the declared set.
	Column string
}

func (e *SchemaMismatchError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema mismatch: row %d has columns outside the batch column set", e.Row)
	}
	return fmt.Sprintf("schema mismatch: row %d is missing column %q", e.Row, e.Column)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

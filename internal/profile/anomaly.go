package profile

// AnomalyKind classifies a recoverable finding recorded during inference or
// reconciliation. Anomalies are informational: they are always recorded,
// never dropped, and never abort the session.
type AnomalyKind string

const (
	// AnomalyTypeConflict: a column's observations span multiple type
	// buckets and no single bucket met the confidence threshold, forcing a
	// type promotion.
	AnomalyTypeConflict AnomalyKind = "type_conflict"

	// AnomalySchemaDrift: the inferred type is incompatibly wider than the
	// expected type; the expected type wins.
	AnomalySchemaDrift AnomalyKind = "schema_drift"

	// AnomalyMissingColumn: an expected column was never observed.
	AnomalyMissingColumn AnomalyKind = "missing_column"

	// AnomalyNewColumn: an observed column is absent from the expected
	// schema.
	AnomalyNewColumn AnomalyKind = "new_column"

	// AnomalyEmptyInput: the session finalized without receiving any rows
	// (recorded only under the "anomaly" empty-input policy).
	AnomalyEmptyInput AnomalyKind = "empty_input"
)

// Anomaly is one recorded finding.
type Anomaly struct {
	// Column names the affected column; empty for session-level findings
	// such as empty input.
	Column string `json:"column,omitempty"`

	Kind AnomalyKind `json:"kind"`

	// Detail is a human-readable explanation, e.g. the minority bucket
	// breakdown behind a type conflict.
	Detail string `json:"detail"`
}

package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"conform/internal/schema"
	"conform/pkg/value"
)

// StrLenStats summarizes text cell lengths (bytes).
type StrLenStats struct {
	Min  int64   `json:"min"`
	Max  int64   `json:"max"`
	Mean float64 `json:"mean"`
}

// ColumnReport is the immutable per-column snapshot packaged into a Report.
type ColumnReport struct {
	Name       string            `json:"name"`
	Type       schema.ColumnType `json:"type"`
	Nullable   bool              `json:"nullable"`
	Confidence float64           `json:"confidence"`

	Count int64 `json:"count"`
	Nulls int64 `json:"nulls"`

	// Types is the non-null histogram keyed by cell kind name.
	Types map[string]int64 `json:"types,omitempty"`

	// Mean and Variance are present only when numeric cells were observed.
	Mean     *float64 `json:"mean,omitempty"`
	Variance *float64 `json:"variance,omitempty"`

	// Min and Max are the bounds of the column's dominant comparable
	// family; for mixed-type columns promoted to text they still describe
	// the dominant sub-bucket, since no total order spans families.
	Min *value.Value `json:"min,omitempty"`
	Max *value.Value `json:"max,omitempty"`

	Distinct         uint64  `json:"distinct"`
	DistinctStdError float64 `json:"distinct_std_error,omitempty"`

	StrLen *StrLenStats `json:"str_len,omitempty"`
}

// Report is the final output of a profiling session: the reconciled schema,
// per-column statistics snapshots, and every anomaly recorded during
// profiling and reconciliation, in order. It is constructed once at
// finalization and never mutated afterwards; ownership passes to the
// transform stage (or to a report sink).
type Report struct {
	Job         string         `json:"job,omitempty"`
	Schema      schema.Schema  `json:"schema"`
	Columns     []ColumnReport `json:"columns"`
	Anomalies   []Anomaly      `json:"anomalies"`
	Rows        int64          `json:"rows"`
	Batches     int64          `json:"batches"`
	FinalizedAt time.Time      `json:"finalized_at"`
}

// WriteJSON serializes the report for operator inspection.
func (r *Report) WriteJSON(w io.Writer, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// snapshotColumn builds the report entry for one schema column. stats is nil
// for expected columns that were never observed.
func snapshotColumn(def schema.ColumnDef, stats *ColumnStats) ColumnReport {
	cr := ColumnReport{
		Name:       def.Name,
		Type:       def.Type,
		Nullable:   def.Nullable,
		Confidence: def.Confidence,
	}
	if stats == nil {
		return cr
	}

	cr.Count = stats.Count
	cr.Nulls = stats.Nulls
	for k, c := range stats.TypeCounts {
		if c > 0 {
			if cr.Types == nil {
				cr.Types = make(map[string]int64)
			}
			cr.Types[value.Kind(k).String()] = c
		}
	}

	if stats.Moments.N > 0 {
		mean, variance := stats.Moments.Mean, stats.Moments.Variance()
		cr.Mean, cr.Variance = &mean, &variance
	}

	// Bounds come from the family of the dominant observed kind, which for
	// promoted columns is the dominant sub-bucket rather than the promoted
	// type.
	if b := stats.boundsFor(dominantKind(stats)); b.Ok {
		mn, mx := b.Min, b.Max
		cr.Min, cr.Max = &mn, &mx
	}

	cr.Distinct = stats.Distinct.Estimate()
	cr.DistinctStdError = stats.Distinct.StdError()

	if stats.TypeCounts[value.KindString] > 0 {
		cr.StrLen = &StrLenStats{
			Min:  stats.StrLenMin,
			Max:  stats.StrLenMax,
			Mean: stats.StrLenMean(),
		}
	}
	return cr
}

// dominantKind returns the largest non-null bucket's kind, ties resolved by
// the inference order.
func dominantKind(s *ColumnStats) value.Kind {
	var dom value.Kind = value.KindNull
	var n int64
	for _, k := range inferKindOrder {
		if c := s.TypeCounts[k]; c > n {
			dom, n = k, c
		}
	}
	return dom
}

package profile

import (
	"conform/internal/sketch"
	"conform/pkg/records"
)

// Profiler turns one batch into per-column accumulators. It holds only
// configuration, never data: every ProfileBatch call is a pure function of
// its batch, so independent workers can share one Profiler value freely.
type Profiler struct {
	// Sketch fixes the distinct-sketch parameters. All accumulators that
	// will be merged together must be produced with the same configuration.
	Sketch sketch.Config
}

// ProfileBatch consumes one batch and produces a fresh accumulator per
// column. Rows must all carry exactly the batch's declared columns; a
// violation returns a *SchemaMismatchError (fatal for the session).
func (p Profiler) ProfileBatch(b records.Batch) (map[string]*ColumnStats, error) {
	out := make(map[string]*ColumnStats, len(b.Columns))
	for _, col := range b.Columns {
		out[col] = NewColumnStats(p.Sketch)
	}

	// Scratch buffer for sketch hash encoding, reused across cells.
	var buf []byte

	for i, row := range b.Rows {
		if col, ok := b.Conforms(row); !ok {
			return nil, &SchemaMismatchError{Row: i, Column: col}
		}
		for _, col := range b.Columns {
			var err error
			if buf, err = out[col].observe(row[col], buf); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

package profile

import (
	"fmt"
	"strings"

	"conform/internal/schema"
	"conform/pkg/value"
)

// DefaultThreshold is the confidence threshold for accepting a dominant type
// bucket without promotion.
const DefaultThreshold = 0.95

// Inference is the per-column outcome of type inference.
type Inference struct {
	Type schema.ColumnType

	// Confidence is the dominant bucket's share among non-null values
	// (1.0 when uncontested, 0 for unobserved or all-null columns).
	Confidence float64

	Nullable bool
}

// inferKindOrder fixes the bucket iteration order so tie-breaks and anomaly
// details are deterministic. Narrow-to-wide along the compatibility chain,
// then the fallback-only kinds.
var inferKindOrder = [...]value.Kind{
	value.KindInt64,
	value.KindFloat64,
	value.KindString,
	value.KindBool,
	value.KindBytes,
}

// InferColumn converts a finalized accumulator into a canonical type
// decision.
//
// Policy: the canonical type is the dominant bucket's type when its share of
// non-null values meets the threshold. Otherwise the column promotes along
// the fixed compatibility order Integer ⊂ Real ⊂ Text: numeric-only mixes
// promote to Real, anything else to Text, never to Boolean or Bytes (those
// are only inferred as the overwhelming-majority bucket). Every promotion
// records a TypeConflict anomaly carrying the bucket breakdown.
func InferColumn(name string, s *ColumnStats, threshold float64) (Inference, *Anomaly) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if s == nil || s.Count == 0 {
		return Inference{Type: schema.TypeUnknown, Nullable: true}, nil
	}
	nonNull := s.NonNull()
	if nonNull == 0 {
		// All-null column: nothing to infer from.
		return Inference{Type: schema.TypeUnknown, Nullable: true}, nil
	}
	nullable := s.Nulls > 0

	// Dominant bucket; exact ties resolve by compatibility order, never by
	// an arbitrary pick.
	var domKind value.Kind
	var domCount int64 = -1
	for _, k := range inferKindOrder {
		c := s.TypeCounts[k]
		if c == 0 {
			continue
		}
		if c > domCount {
			domKind, domCount = k, c
		}
	}

	// An uncontested bucket has share exactly 1.0, which doubles as the
	// confidence value.
	share := float64(domCount) / float64(nonNull)
	if share >= threshold {
		return Inference{Type: schema.TypeOfKind(domKind), Confidence: share, Nullable: nullable}, nil
	}

	// Promotion: Real only when every observation is numeric, else Text.
	promoted := schema.TypeText
	if s.TypeCounts[value.KindInt64]+s.TypeCounts[value.KindFloat64] == nonNull {
		promoted = schema.TypeReal
	}
	anom := &Anomaly{
		Column: name,
		Kind:   AnomalyTypeConflict,
		Detail: bucketBreakdown(s, domKind, share, promoted),
	}
	return Inference{Type: promoted, Confidence: share, Nullable: nullable}, anom
}

// bucketBreakdown renders the minority bucket detail attached to a
// TypeConflict anomaly, e.g.:
//
//	promoted to text: dominant integer 80.0%, minority text=1
func bucketBreakdown(s *ColumnStats, dom value.Kind, share float64, promoted schema.ColumnType) string {
	var minority []string
	for _, k := range inferKindOrder {
		if k == dom || s.TypeCounts[k] == 0 {
			continue
		}
		minority = append(minority, fmt.Sprintf("%s=%d", k, s.TypeCounts[k]))
	}
	return fmt.Sprintf("promoted to %s: dominant %s %.1f%%, minority %s",
		promoted, dom, share*100, strings.Join(minority, " "))
}

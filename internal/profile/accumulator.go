package profile

import (
	"fmt"
	"math"

	"conform/internal/sketch"
	"conform/pkg/value"
)

// Moments is streaming numeric moment state: count, mean, and the sum of
// squared deviations from the mean (M2), maintained with Welford's update so
// no raw values need to be retained. Two Moments combine with the parallel
// variance formula (Chan et al.), which keeps merging associative and
// commutative up to floating-point tolerance.
type Moments struct {
	N    int64   `json:"n"`
	Mean float64 `json:"mean"`
	M2   float64 `json:"m2"`
}

// add folds one numeric observation into the moments. Non-finite values are
// skipped: they stay in the type histogram but contribute nothing to the
// moment state or bounds.
func (m *Moments) add(x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	m.N++
	delta := x - m.Mean
	m.Mean += delta / float64(m.N)
	m.M2 += delta * (x - m.Mean)
	if math.IsInf(m.M2, 0) || math.IsInf(m.Mean, 0) {
		return fmt.Errorf("%w: moment state overflowed", ErrAggregationOverflow)
	}
	return nil
}

// combineMoments merges two moment triples without revisiting raw values.
func combineMoments(a, b Moments) (Moments, error) {
	if a.N == 0 {
		return b, nil
	}
	if b.N == 0 {
		return a, nil
	}
	n := a.N + b.N
	delta := b.Mean - a.Mean
	out := Moments{
		N:    n,
		Mean: a.Mean + delta*float64(b.N)/float64(n),
		M2:   a.M2 + b.M2 + delta*delta*float64(a.N)*float64(b.N)/float64(n),
	}
	if math.IsInf(out.Mean, 0) || math.IsInf(out.M2, 0) || math.IsNaN(out.M2) {
		return Moments{}, fmt.Errorf("%w: merged moment state is not finite", ErrAggregationOverflow)
	}
	return out, nil
}

// Variance returns the population variance (0 with fewer than 2 values).
func (m Moments) Variance() float64 {
	if m.N < 2 {
		return 0
	}
	return m.M2 / float64(m.N)
}

// bounds tracks min/max within one comparable family.
type bounds struct {
	Ok  bool        `json:"ok"`
	Min value.Value `json:"min"`
	Max value.Value `json:"max"`
}

func (b *bounds) observe(v value.Value) {
	if !b.Ok {
		b.Ok, b.Min, b.Max = true, v, v
		return
	}
	if c, ok := value.Compare(v, b.Min); ok && c < 0 {
		b.Min = v
	}
	if c, ok := value.Compare(v, b.Max); ok && c > 0 {
		b.Max = v
	}
}

func mergeBounds(a, b bounds) bounds {
	if !a.Ok {
		return b
	}
	if !b.Ok {
		return a
	}
	out := a
	if c, ok := value.Compare(b.Min, out.Min); ok && c < 0 {
		out.Min = b.Min
	}
	if c, ok := value.Compare(b.Max, out.Max); ok && c > 0 {
		out.Max = b.Max
	}
	return out
}

// ColumnStats is the mergeable per-column accumulator. It begins empty, is
// mutated only by the profiler (per batch), and merges pairwise into new
// values; a finalized session never mutates it again.
//
// Invariants (checked by tests):
//   - Count == Nulls + sum(TypeCounts)
//   - each family's Min <= Max whenever both are defined
//   - Merge(a, b) is associative and commutative on all count fields and on
//     moment-derived fields within floating tolerance.
type ColumnStats struct {
	// Count is the total number of cells observed, nulls included.
	Count int64

	// Nulls is the number of null cells.
	Nulls int64

	// TypeCounts is the per-kind histogram over non-null cells, indexed by
	// value.Kind.
	TypeCounts [value.NumKinds]int64

	// Moments accumulates Int64/Float64 cells under numeric promotion.
	Moments Moments

	// Per-family min/max. Only the family of the inferred dominant type is
	// reported; mixed-type columns keep their sub-bucket bounds.
	NumBounds   bounds
	StrBounds   bounds
	BytesBounds bounds
	BoolBounds  bounds

	// String length extremes and total, over Text cells (byte lengths).
	StrLenMin int64
	StrLenMax int64
	StrLenSum int64

	// Distinct is the mergeable distinct-value sketch over non-null cells.
	Distinct *sketch.Sketch
}

// NewColumnStats returns an empty accumulator using the given sketch
// configuration.
func NewColumnStats(cfg sketch.Config) *ColumnStats {
	return &ColumnStats{Distinct: sketch.New(cfg)}
}

// NonNull returns the number of non-null cells.
func (s *ColumnStats) NonNull() int64 { return s.Count - s.Nulls }

// StrLenMean returns the mean text length (0 when no text cells).
func (s *ColumnStats) StrLenMean() float64 {
	n := s.TypeCounts[value.KindString]
	if n == 0 {
		return 0
	}
	return float64(s.StrLenSum) / float64(n)
}

// observe folds one cell into the accumulator. buf is a scratch buffer for
// hash encoding; the (possibly grown) buffer is returned for reuse.
func (s *ColumnStats) observe(v value.Value, buf []byte) ([]byte, error) {
	s.Count++
	if v.IsNull() {
		s.Nulls++
		return buf, nil
	}
	k := v.Kind()
	s.TypeCounts[k]++

	switch {
	case k.Numeric():
		x, _ := v.Num()
		if err := s.Moments.add(x); err != nil {
			return buf, err
		}
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			s.NumBounds.observe(v)
		}
	case k == value.KindString:
		n := int64(len(v.AsString()))
		if s.TypeCounts[value.KindString] == 1 {
			s.StrLenMin, s.StrLenMax = n, n
		} else {
			if n < s.StrLenMin {
				s.StrLenMin = n
			}
			if n > s.StrLenMax {
				s.StrLenMax = n
			}
		}
		s.StrLenSum += n
		s.StrBounds.observe(v)
	case k == value.KindBytes:
		s.BytesBounds.observe(v)
	case k == value.KindBool:
		s.BoolBounds.observe(v)
	}

	buf = v.AppendEncode(buf[:0])
	s.Distinct.Insert(sketch.Hash(buf))
	return buf, nil
}

// addCount adds two counters with an explicit overflow check; wrapping
// silently would corrupt every downstream share computation.
func addCount(a, b int64) (int64, error) {
	if a > math.MaxInt64-b {
		return 0, fmt.Errorf("%w: counter overflow (%d + %d)", ErrAggregationOverflow, a, b)
	}
	return a + b, nil
}

// MergeStats combines two accumulators into a new one, leaving both inputs
// untouched. It is associative and commutative: any partition of the same
// data merged in any order yields equal counts and numerically equal
// moment-derived fields.
func MergeStats(a, b *ColumnStats) (*ColumnStats, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}

	out := &ColumnStats{}
	var err error
	if out.Count, err = addCount(a.Count, b.Count); err != nil {
		return nil, err
	}
	if out.Nulls, err = addCount(a.Nulls, b.Nulls); err != nil {
		return nil, err
	}
	for k := range out.TypeCounts {
		if out.TypeCounts[k], err = addCount(a.TypeCounts[k], b.TypeCounts[k]); err != nil {
			return nil, err
		}
	}

	if out.Moments, err = combineMoments(a.Moments, b.Moments); err != nil {
		return nil, err
	}

	out.NumBounds = mergeBounds(a.NumBounds, b.NumBounds)
	out.StrBounds = mergeBounds(a.StrBounds, b.StrBounds)
	out.BytesBounds = mergeBounds(a.BytesBounds, b.BytesBounds)
	out.BoolBounds = mergeBounds(a.BoolBounds, b.BoolBounds)

	switch {
	case a.TypeCounts[value.KindString] == 0:
		out.StrLenMin, out.StrLenMax = b.StrLenMin, b.StrLenMax
	case b.TypeCounts[value.KindString] == 0:
		out.StrLenMin, out.StrLenMax = a.StrLenMin, a.StrLenMax
	default:
		out.StrLenMin = min64(a.StrLenMin, b.StrLenMin)
		out.StrLenMax = max64(a.StrLenMax, b.StrLenMax)
	}
	out.StrLenSum = a.StrLenSum + b.StrLenSum

	if out.Distinct, err = sketch.Merge(a.Distinct, b.Distinct); err != nil {
		return nil, err
	}
	return out, nil
}

// boundsFor returns the min/max pair for the comparable family of t.
func (s *ColumnStats) boundsFor(t value.Kind) bounds {
	switch {
	case t.Numeric():
		return s.NumBounds
	case t == value.KindString:
		return s.StrBounds
	case t == value.KindBytes:
		return s.BytesBounds
	case t == value.KindBool:
		return s.BoolBounds
	default:
		return bounds{}
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Package sketch implements the mergeable distinct-value counter used by the
// column profiler.
//
// A Sketch starts in exact mode, tracking raw 64-bit hashes in a small set.
// Once the set exceeds a configurable cutover size it degrades to a
// HyperLogLog register array, trading exactness for bounded memory. Both
// modes merge losslessly with each other, and merging is associative and
// commutative, so sketches built from any partition of the same values in
// any order produce the same estimate.
package sketch

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

const (
	// MinPrecision and MaxPrecision bound the HyperLogLog register count
	// (2^p registers). p=14 gives ~0.81% standard error in 16 KiB.
	MinPrecision = 4
	MaxPrecision = 18

	// DefaultPrecision is used when the caller does not configure one.
	DefaultPrecision = 14

	// DefaultCutover is the exact-set size above which a sketch degrades
	// to approximate counting.
	DefaultCutover = 256
)

// Config fixes the sketch parameters for one profiling session. All sketches
// that will be merged together must share the same Config.
type Config struct {
	// Precision is the HyperLogLog precision p (registers = 2^p).
	Precision uint8

	// Cutover is the maximum exact-set size before degrading to HLL.
	Cutover int
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.Precision == 0 {
		c.Precision = DefaultPrecision
	}
	if c.Cutover == 0 {
		c.Cutover = DefaultCutover
	}
	return c
}

// Validate reports an error for out-of-range parameters.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.Precision < MinPrecision || c.Precision > MaxPrecision {
		return fmt.Errorf("sketch: precision %d out of range [%d,%d]", c.Precision, MinPrecision, MaxPrecision)
	}
	if c.Cutover < 0 {
		return fmt.Errorf("sketch: cutover %d must be >= 0", c.Cutover)
	}
	return nil
}

// Hash hashes an encoded cell for insertion. Centralized here so every
// call site uses the same function (xxh3, following the hashing choice used
// elsewhere in the project tooling).
func Hash(encoded []byte) uint64 { return xxh3.Hash(encoded) }

// Sketch is a mergeable distinct counter. Not safe for concurrent use; each
// profiling worker owns its sketches and ownership transfers on merge.
type Sketch struct {
	cfg Config

	// exact holds raw hashes while small. nil once degraded.
	exact map[uint64]struct{}

	// hll holds the register array once degraded. nil while exact.
	hll *hll
}

// New returns an empty sketch with the given configuration.
func New(cfg Config) *Sketch {
	cfg = cfg.withDefaults()
	return &Sketch{
		cfg:   cfg,
		exact: make(map[uint64]struct{}),
	}
}

// Insert adds one hashed value.
func (s *Sketch) Insert(h uint64) {
	if s.hll != nil {
		s.hll.insert(h)
		return
	}
	s.exact[h] = struct{}{}
	if len(s.exact) > s.cfg.Cutover {
		s.degrade()
	}
}

// degrade converts the exact set into HLL registers.
func (s *Sketch) degrade() {
	h := newHLL(s.cfg.Precision)
	for v := range s.exact {
		h.insert(v)
	}
	s.hll = h
	s.exact = nil
}

// Estimate returns the distinct-value estimate. Exact below the cutover.
func (s *Sketch) Estimate() uint64 {
	if s.hll != nil {
		return s.hll.estimate()
	}
	return uint64(len(s.exact))
}

// Approximate reports whether the sketch has degraded to HLL counting.
func (s *Sketch) Approximate() bool { return s.hll != nil }

// StdError returns the relative standard error of Estimate: 0 while exact,
// 1.04/sqrt(2^p) once approximate.
func (s *Sketch) StdError() float64 {
	if s.hll == nil {
		return 0
	}
	return s.hll.stdError()
}

// Clone returns a deep copy.
func (s *Sketch) Clone() *Sketch {
	out := &Sketch{cfg: s.cfg}
	if s.hll != nil {
		out.hll = s.hll.clone()
		return out
	}
	out.exact = make(map[uint64]struct{}, len(s.exact))
	for h := range s.exact {
		out.exact[h] = struct{}{}
	}
	return out
}

// Merge returns the union of a and b as a new sketch, leaving both inputs
// untouched. Merging sketches with differing configurations is an error.
func Merge(a, b *Sketch) (*Sketch, error) {
	if a.cfg != b.cfg {
		return nil, fmt.Errorf("sketch: merge config mismatch: %+v vs %+v", a.cfg, b.cfg)
	}
	out := a.Clone()
	if b.hll != nil {
		if out.hll == nil {
			out.degrade()
		}
		out.hll.union(b.hll)
		return out, nil
	}
	for h := range b.exact {
		out.Insert(h)
	}
	return out, nil
}

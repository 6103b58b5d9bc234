package profile

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"conform/internal/schema"
	"conform/internal/sketch"
	"conform/pkg/records"
)

// State is the session lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateProfiling
	StateFinalizing
	StateFinalized
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProfiling:
		return "profiling"
	case StateFinalizing:
		return "finalizing"
	case StateFinalized:
		return "finalized"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// EmptyInputPolicy selects what Finalize does when no batches arrived.
type EmptyInputPolicy string

const (
	// EmptyInputUnknown (default): all columns resolve to Unknown; with an
	// expected schema, its columns are kept nullable with MissingColumn
	// anomalies.
	EmptyInputUnknown EmptyInputPolicy = "unknown"

	// EmptyInputAnomaly additionally records a non-fatal EmptyInput anomaly.
	EmptyInputAnomaly EmptyInputPolicy = "anomaly"
)

// Config is the caller-supplied tuning surface of a session. The core never
// loads configuration itself; the surrounding pipeline decides.
type Config struct {
	// Job labels the session in reports and metrics.
	Job string

	// Threshold is the confidence threshold for type promotion
	// (DefaultThreshold when zero).
	Threshold float64

	// Workers bounds parallel batch profiling in Drain (GOMAXPROCS when
	// zero).
	Workers int

	// MaxBatches and MaxRows are optional sampling cutoffs; zero means
	// unlimited. Once a cutoff is reached further batches are discarded
	// without error.
	MaxBatches int64
	MaxRows    int64

	// Sketch fixes the distinct-sketch parameters for every column.
	Sketch sketch.Config

	// Expected is the optional expected schema for reconciliation.
	Expected *schema.Schema

	// EmptyInput selects the empty-input policy.
	EmptyInput EmptyInputPolicy
}

func (c Config) withDefaults() Config {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.EmptyInput == "" {
		c.EmptyInput = EmptyInputUnknown
	}
	return c
}

// partial is one worker's accumulated view: column stats plus first-seen
// column order, so merging preserves deterministic ordering per worker.
type partial struct {
	stats map[string]*ColumnStats
	order []string
}

func newPartial() *partial {
	return &partial{stats: make(map[string]*ColumnStats)}
}

// absorb merges batch-level results into the partial, consuming them.
func (p *partial) absorb(cols []string, m map[string]*ColumnStats) error {
	for _, col := range cols {
		cur, seen := p.stats[col]
		if !seen {
			p.order = append(p.order, col)
		}
		merged, err := MergeStats(cur, m[col])
		if err != nil {
			return err
		}
		p.stats[col] = merged
	}
	return nil
}

// Session coordinates batch profiling, merging, and finalization for one
// dataset. Lifecycle: Idle → Profiling → Finalizing → Finalized, with
// Aborted reachable on any fatal error. Batches may be supplied serially
// (Add) or drained from a channel in parallel (Drain); either way each
// worker owns its accumulators exclusively and merging transfers ownership,
// so no locking happens anywhere in the reduction tree; the session mutex
// only guards lifecycle state and the root of the reduction.
type Session struct {
	cfg  Config
	prof Profiler

	mu      sync.Mutex
	state   State
	root    *partial
	batches int64
	rows    int64
	err     error
}

// NewSession returns an Idle session.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:  cfg,
		prof: Profiler{Sketch: cfg.Sketch},
		root: newPartial(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the abort cause, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// admit reserves ingest capacity for a batch under the sampling cutoff.
// It reports whether the batch should be profiled at all.
func (s *Session) admit(rows int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		s.state = StateProfiling
	case StateProfiling:
	default:
		return false, fmt.Errorf("%w: state %s", ErrSessionClosed, s.state)
	}
	if s.cfg.MaxBatches > 0 && s.batches >= s.cfg.MaxBatches {
		return false, nil
	}
	if s.cfg.MaxRows > 0 && s.rows >= s.cfg.MaxRows {
		return false, nil
	}
	s.batches++
	s.rows += rows
	return true, nil
}

// abort moves the session to Aborted and discards everything accumulated.
func (s *Session) abort(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAborted {
		s.state = StateAborted
		s.err = err
		s.root = newPartial()
	}
	return s.err
}

// Add profiles one batch and merges it into the session. Safe for
// concurrent use; profiling runs outside the session lock.
func (s *Session) Add(ctx context.Context, b records.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := s.admit(int64(len(b.Rows)))
	if err != nil {
		return err
	}
	if !ok {
		// Sampling cutoff reached: the batch is dropped by design.
		return nil
	}

	part, err := s.prof.ProfileBatch(b)
	if err != nil {
		return s.abort(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateProfiling {
		return fmt.Errorf("%w: state %s", ErrSessionClosed, s.state)
	}
	if err := s.root.absorb(b.Columns, part); err != nil {
		s.state = StateAborted
		s.err = err
		s.root = newPartial()
		return err
	}
	return nil
}

// Drain consumes batches from in until it closes, profiling them with the
// configured number of workers. Each worker folds its batches into a private
// partial; the partials merge pairwise at the end, forming the reduction
// tree. Returns the first fatal error, which also aborts the session.
func (s *Session) Drain(ctx context.Context, in <-chan records.Batch) error {
	g, ctx := errgroup.WithContext(ctx)
	parts := make([]*partial, s.cfg.Workers)

	for w := 0; w < s.cfg.Workers; w++ {
		p := newPartial()
		parts[w] = p
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case b, open := <-in:
					if !open {
						return nil
					}
					ok, err := s.admit(int64(len(b.Rows)))
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
					m, err := s.prof.ProfileBatch(b)
					if err != nil {
						return err
					}
					if err := p.absorb(b.Columns, m); err != nil {
						return err
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return s.abort(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAborted {
		return s.err
	}
	for _, p := range parts {
		if err := s.root.absorb(p.order, p.stats); err != nil {
			s.state = StateAborted
			s.err = err
			s.root = newPartial()
			return err
		}
	}
	return nil
}

// Cancel aborts the session and discards all in-flight accumulators.
// Partial results are never exposed or reused.
func (s *Session) Cancel() {
	_ = s.abort(fmt.Errorf("%w: cancelled", ErrSessionClosed))
}

// Finalize is the finalization barrier: it stops accepting batches, infers
// the canonical type per column, reconciles against the expected schema, and
// assembles the immutable report. Callers must ensure all Add/Drain calls
// have returned first.
func (s *Session) Finalize() (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAborted:
		return nil, s.err
	case StateFinalized, StateFinalizing:
		return nil, fmt.Errorf("%w: state %s", ErrSessionClosed, s.state)
	}
	s.state = StateFinalizing

	var inferred schema.Schema
	var anomalies []Anomaly

	for _, col := range s.root.order {
		inf, anom := InferColumn(col, s.root.stats[col], s.cfg.Threshold)
		inferred.Columns = append(inferred.Columns, schema.ColumnDef{
			Name:       col,
			Type:       inf.Type,
			Nullable:   inf.Nullable,
			Confidence: inf.Confidence,
		})
		if anom != nil {
			anomalies = append(anomalies, *anom)
		}
	}

	if s.rows == 0 && s.cfg.EmptyInput == EmptyInputAnomaly {
		anomalies = append(anomalies, Anomaly{
			Kind:   AnomalyEmptyInput,
			Detail: "session finalized without any input rows",
		})
	}

	final, reconAnoms := Reconcile(inferred, s.cfg.Expected)
	anomalies = append(anomalies, reconAnoms...)

	rep := &Report{
		Job:         s.cfg.Job,
		Schema:      final,
		Anomalies:   anomalies,
		Rows:        s.rows,
		Batches:     s.batches,
		FinalizedAt: time.Now().UTC(),
	}
	for _, def := range final.Columns {
		rep.Columns = append(rep.Columns, snapshotColumn(def, s.root.stats[def.Name]))
	}
	if rep.Anomalies == nil {
		rep.Anomalies = []Anomaly{}
	}

	s.state = StateFinalized
	return rep, nil
}

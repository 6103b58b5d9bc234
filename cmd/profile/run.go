// This file wires a profiling run end-to-end: datasource -> parser ->
// session -> report, plus the optional conform, DDL, and storage outputs.
// The CLI layer stays thin; it depends only on the storage-agnostic Sink
// interface and never imports database drivers directly.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"conform/internal/config"
	"conform/internal/conformer"
	"conform/internal/datasource"
	"conform/internal/datasource/file"
	"conform/internal/datasource/httpds"
	"conform/internal/ddl"
	"conform/internal/metrics"
	"conform/internal/parser"
	"conform/internal/profile"
	"conform/internal/schema"
	"conform/internal/sketch"
	"conform/internal/storage"
	"conform/pkg/records"
)

// runOptions carries CLI-level settings that are not part of the config file.
type runOptions struct {
	out           string
	indent        bool
	ddl           string
	table         string
	applyDDL      bool
	conformOut    string
	conformStrict bool
	inputList     string
	verbose       bool
}

// ddlApplier is implemented by sinks that can execute conformed-schema DDL.
type ddlApplier interface {
	ApplyDDL(ctx context.Context, stmt string) error
}

// run executes one profiling run and writes its outputs.
func run(ctx context.Context, p config.Profile, opts runOptions) error {
	sess, err := newSession(p)
	if err != nil {
		return err
	}

	sources, err := resolveSources(p, opts)
	if err != nil {
		return err
	}

	// Profile all sources into the one session.
	profileStart := time.Now()
	err = drainSources(ctx, p, sess, sources)
	metrics.RecordStage(p.Job, "profile", err, time.Since(profileStart))
	if err != nil {
		return err
	}

	rep, err := sess.Finalize()
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	metrics.RecordRows(p.Job, rep.Rows)
	metrics.RecordBatches(p.Job, rep.Batches)
	for _, a := range rep.Anomalies {
		metrics.RecordAnomalies(p.Job, string(a.Kind), 1)
	}

	if err := writeReport(rep, opts); err != nil {
		return err
	}

	if opts.conformOut != "" {
		conformStart := time.Now()
		err = conformSources(ctx, p, rep, sources, opts)
		metrics.RecordStage(p.Job, "conform", err, time.Since(conformStart))
		if err != nil {
			return err
		}
	}

	var ddlStmt string
	if opts.ddl != "" {
		ddlStmt, err = buildDDL(rep, p, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, ddlStmt)
	}

	storeStart := time.Now()
	err = store(ctx, p, rep, ddlStmt, opts)
	metrics.RecordStage(p.Job, "store", err, time.Since(storeStart))
	return err
}

// newSession builds the profiling session from config.
func newSession(p config.Profile) (*profile.Session, error) {
	cfg := profile.Config{
		Job:        p.Job,
		Threshold:  p.Profiler.ConfidenceThreshold,
		Workers:    p.Profiler.Workers,
		MaxBatches: p.Profiler.MaxBatches,
		MaxRows:    p.Profiler.MaxRows,
		Sketch: sketch.Config{
			Precision: p.Profiler.SketchPrecision,
			Cutover:   p.Profiler.SketchCutover,
		},
		EmptyInput: profile.EmptyInputPolicy(p.Profiler.EmptyInput),
	}
	if p.Expected != nil {
		expected, err := p.Expected.Schema()
		if err != nil {
			return nil, fmt.Errorf("expected schema: %w", err)
		}
		cfg.Expected = &expected
	}
	return profile.NewSession(cfg), nil
}

// resolveSources expands the configured source (or the -input-list file) into
// the ordered list of byte streams to profile.
func resolveSources(p config.Profile, opts runOptions) ([]datasource.Source, error) {
	if opts.inputList != "" {
		paths, err := file.ReadList(opts.inputList)
		if err != nil {
			return nil, fmt.Errorf("read input list: %w", err)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("input list %s names no files", opts.inputList)
		}
		out := make([]datasource.Source, len(paths))
		for i, path := range paths {
			out[i] = file.NewLocal(path)
		}
		return out, nil
	}

	switch p.Source.Kind {
	case "file":
		return []datasource.Source{file.NewLocal(p.Source.File.Path)}, nil
	case "http":
		src := httpds.NewSource(p.Source.HTTP.URL, httpds.Config{
			InsecureSkipVerify: p.Source.HTTP.AllowInsecureTLS,
		})
		return []datasource.Source{src}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", p.Source.Kind)
	}
}

// drainSources streams every source through the parser into the session.
// Parsing and profiling overlap: the parser fills a bounded channel while
// session workers consume it.
func drainSources(ctx context.Context, p config.Profile, sess *profile.Session, sources []datasource.Source) error {
	onRowErr := func(line int, err error) {
		log.Printf("parser: line %d: %v", line, err)
	}

	batches := make(chan records.Batch, 4)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		for _, src := range sources {
			if err := streamOne(ctx, p, src, batches, onRowErr); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		return sess.Drain(ctx, batches)
	})
	return g.Wait()
}

// streamOne opens one source and parses it into the shared batch channel.
// The parser kind is sniffed from the first bytes when none is configured.
func streamOne(ctx context.Context, p config.Profile, src datasource.Source, out chan<- records.Batch, onRowErr func(int, error)) error {
	rc, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 64*1024)
	kind := p.Parser.Kind
	if kind == "" {
		sample, _ := br.Peek(512)
		kind = parser.Detect(sample)
	}

	ps, err := parser.New(kind, p.Parser.Options, p.Profiler.BatchSize, onRowErr)
	if err != nil {
		return err
	}
	return ps.Stream(ctx, br, out)
}

// writeReport renders the report JSON to the configured destination.
func writeReport(rep *profile.Report, opts runOptions) error {
	var w io.Writer = os.Stdout
	if opts.out != "" && opts.out != "-" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return rep.WriteJSON(w, opts.indent)
}

// buildDDL renders a CREATE TABLE statement for the inferred schema.
func buildDDL(rep *profile.Report, p config.Profile, opts runOptions) (string, error) {
	dialect, err := ddl.ParseDialect(opts.ddl)
	if err != nil {
		return "", err
	}
	table := opts.table
	if table == "" {
		table = schema.TruncateName(schema.NormalizeName(p.Job))
	}
	def, err := ddl.FromSchema(table, rep.Schema, dialect)
	if err != nil {
		return "", err
	}
	return ddl.BuildCreateTableSQL(def)
}

// conformSources replays the sources a second time and writes every row cast
// onto the inferred schema as JSON lines. Cells that cannot be cast are
// nulled and counted unless -conform-strict is set.
func conformSources(ctx context.Context, p config.Profile, rep *profile.Report, sources []datasource.Source, opts runOptions) error {
	f, err := os.Create(opts.conformOut)
	if err != nil {
		return fmt.Errorf("create conform output: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)

	c := conformer.Conformer{Schema: rep.Schema, Strict: opts.conformStrict}
	onRowErr := func(line int, err error) {
		log.Printf("parser: line %d: %v", line, err)
	}

	batches := make(chan records.Batch, 4)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(batches)
		for _, src := range sources {
			if err := streamOne(ctx, p, src, batches, onRowErr); err != nil {
				return err
			}
		}
		return nil
	})

	var casts, nulled int64
	g.Go(func() error {
		for b := range batches {
			out, res, err := c.Apply(b)
			if err != nil {
				return err
			}
			casts += res.Casts
			for _, n := range res.Failures {
				nulled += n
			}
			for _, row := range out.Rows {
				if err := enc.Encode(row); err != nil {
					return fmt.Errorf("write conformed row: %w", err)
				}
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.verbose || nulled > 0 {
		log.Printf("conform: %d cells cast, %d cells nulled", casts, nulled)
	}
	return bw.Flush()
}

// store persists the report when a storage backend is configured, applying
// the conformed DDL first when requested and the sink supports it.
func store(ctx context.Context, p config.Profile, rep *profile.Report, ddlStmt string, opts runOptions) error {
	sink, err := storage.Open(ctx, p.Storage)
	if err != nil {
		return err
	}
	defer sink.Close()

	if opts.applyDDL && ddlStmt != "" {
		a, ok := sink.(ddlApplier)
		if !ok {
			return fmt.Errorf("storage: %s sink cannot apply DDL", p.Storage.Kind)
		}
		if err := a.ApplyDDL(ctx, ddlStmt); err != nil {
			return err
		}
	}

	if err := sink.SaveReport(ctx, rep); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

package csv

import (
	"context"
	"errors"
	"strings"
	"testing"

	"conform/internal/config"
	"conform/internal/profile"
	"conform/internal/schema"
	"conform/pkg/records"
	"conform/pkg/value"
)

// collect runs Stream to completion and returns every batch.
func collect(t *testing.T, p *Parser, in string) []records.Batch {
	t.Helper()
	out := make(chan records.Batch, 64)
	if err := p.Stream(context.Background(), strings.NewReader(in), out); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	close(out)
	var batches []records.Batch
	for b := range out {
		batches = append(batches, b)
	}
	return batches
}

// rows flattens batches into a single row slice.
func rows(batches []records.Batch) []records.Row {
	var out []records.Row
	for _, b := range batches {
		out = append(out, b.Rows...)
	}
	return out
}

func TestTypeCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want value.Value
	}{
		{"", value.Null()},
		{"42", value.Int(42)},
		{"-7", value.Int(-7)},
		{"3.25", value.Float(3.25)},
		{"1e3", value.Float(1000)},
		{"true", value.Bool(true)},
		{"FALSE", value.Bool(false)},
		{"hello", value.Str("hello")},
		{"1.2.3", value.Str("1.2.3")},
		{"0x10", value.Str("0x10")},
		{"t", value.Str("t")},
		{"0", value.Int(0)},
		{"NaN", value.Str("NaN")},
		{"Inf", value.Str("Inf")},
		{"-Infinity", value.Str("-Infinity")},
		{"nan", value.Str("nan")},
	}
	for _, tt := range tests {
		got := TypeCell(tt.in)
		if got.Kind() != tt.want.Kind() {
			t.Fatalf("TypeCell(%q).Kind = %s, want %s", tt.in, got.Kind(), tt.want.Kind())
		}
		if c, ok := value.Compare(got, tt.want); !got.IsNull() && (!ok || c != 0) {
			t.Fatalf("TypeCell(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStreamHeaderAndTyping(t *testing.T) {
	t.Parallel()

	in := "\uFEFFID,First Name,Amount,Active\n1,ada,9.5,true\n2,grace,,false\n"
	batches := collect(t, New(nil, 0), in)

	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	cols := batches[0].Columns
	want := []string{"id", "first_name", "amount", "active"}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}

	rs := rows(batches)
	if len(rs) != 2 {
		t.Fatalf("got %d rows, want 2", len(rs))
	}
	r := rs[0]
	if r["id"].Kind() != value.KindInt64 || r["amount"].Kind() != value.KindFloat64 ||
		r["active"].Kind() != value.KindBool || r["first_name"].AsString() != "ada" {
		t.Fatalf("row = %v", r)
	}
	if !rs[1]["amount"].IsNull() {
		t.Fatalf("empty cell = %v, want null", rs[1]["amount"])
	}
}

func TestStreamDuplicateHeaders(t *testing.T) {
	t.Parallel()

	in := "a,a,A\n1,2,3\n"
	batches := collect(t, New(nil, 0), in)
	cols := batches[0].Columns
	want := []string{"a", "a_2", "a_3"}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}
}

func TestStreamNoHeader(t *testing.T) {
	t.Parallel()

	p := New(config.Options{"has_header": false}, 0)
	batches := collect(t, p, "10,x\n20,y\n")
	cols := batches[0].Columns
	if cols[0] != "col_1" || cols[1] != "col_2" {
		t.Fatalf("columns = %v", cols)
	}
	if got := rows(batches); len(got) != 2 || got[0]["col_1"].Kind() != value.KindInt64 {
		t.Fatalf("rows = %v", got)
	}
}

func TestStreamBatchSize(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 0; i < 10; i++ {
		sb.WriteString("1\n")
	}
	batches := collect(t, New(nil, 4), sb.String())
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3 (4+4+2)", len(batches))
	}
	if batches[0].Len() != 4 || batches[2].Len() != 2 {
		t.Fatalf("batch sizes = %d,%d,%d", batches[0].Len(), batches[1].Len(), batches[2].Len())
	}
}

func TestStreamRaggedRows(t *testing.T) {
	t.Parallel()

	var softErrs int
	p := New(nil, 0)
	p.OnRowError = func(line int, err error) { softErrs++ }

	in := "a,b\n1\n1,2,3\n4,5\n"
	batches := collect(t, p, in)
	rs := rows(batches)
	if len(rs) != 3 {
		t.Fatalf("got %d rows, want 3", len(rs))
	}
	// Short row null-fills the missing column.
	if !rs[0]["b"].IsNull() {
		t.Fatalf("short row b = %v, want null", rs[0]["b"])
	}
	// Long row keeps the declared columns and reports the extra cell.
	if rs[1]["b"].AsInt() != 2 {
		t.Fatalf("long row = %v", rs[1])
	}
	if softErrs != 1 {
		t.Fatalf("soft errors = %d, want 1", softErrs)
	}
}

func TestStreamOptions(t *testing.T) {
	t.Parallel()

	t.Run("semicolon comma", func(t *testing.T) {
		t.Parallel()
		p := New(config.Options{"comma": ";"}, 0)
		batches := collect(t, p, "a;b\n1;2\n")
		if len(batches[0].Columns) != 2 {
			t.Fatalf("columns = %v", batches[0].Columns)
		}
	})

	t.Run("raw strings", func(t *testing.T) {
		t.Parallel()
		p := New(config.Options{"raw_strings": true}, 0)
		rs := rows(collect(t, p, "a,b\n42,\n"))
		if rs[0]["a"].Kind() != value.KindString || !rs[0]["b"].IsNull() {
			t.Fatalf("row = %v", rs[0])
		}
	})

	t.Run("no trim", func(t *testing.T) {
		t.Parallel()
		p := New(config.Options{"trim_space": false}, 0)
		rs := rows(collect(t, p, "a\n x \n"))
		if rs[0]["a"].AsString() != " x " {
			t.Fatalf("cell = %q", rs[0]["a"].AsString())
		}
	})
}

func TestStreamEmptyInput(t *testing.T) {
	t.Parallel()

	if got := collect(t, New(nil, 0), ""); len(got) != 0 {
		t.Fatalf("batches = %v, want none", got)
	}
	// Header only, no data rows.
	if got := collect(t, New(nil, 0), "a,b\n"); len(got) != 0 {
		t.Fatalf("batches = %v, want none", got)
	}
}

func TestStreamCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan records.Batch) // unbuffered, never read
	err := New(nil, 1).Stream(ctx, strings.NewReader("a\n1\n2\n"), out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Stream error = %v, want context.Canceled", err)
	}
}

// TestStreamSentinelCell runs a numeric column carrying a literal "NaN" cell
// through a whole profiling session: the run finishes, the sentinel lands in
// a minority text bucket, and the numeric statistics come from the finite
// cells only.
func TestStreamSentinelCell(t *testing.T) {
	t.Parallel()

	in := "age\n25\nNaN\n40\n"
	s := profile.NewSession(profile.Config{})
	ctx := context.Background()
	for _, b := range collect(t, New(nil, 0), in) {
		if err := s.Add(ctx, b); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	rep, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	age, ok := rep.Schema.Find("age")
	if !ok || age.Type != schema.TypeText {
		t.Fatalf("age type = %v, want text", age.Type)
	}
	if len(rep.Anomalies) != 1 || rep.Anomalies[0].Kind != profile.AnomalyTypeConflict {
		t.Fatalf("anomalies = %+v, want one type_conflict", rep.Anomalies)
	}

	cr := rep.Columns[0]
	if cr.Types["integer"] != 2 || cr.Types["text"] != 1 {
		t.Fatalf("Types = %v", cr.Types)
	}
	if cr.Mean == nil || *cr.Mean != 32.5 {
		t.Fatalf("Mean = %v, want 32.5", cr.Mean)
	}
}

package config

import (
	"strings"
	"testing"

	"conform/internal/schema"
)

// hasIssue reports whether issues contains a finding with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// valid returns a Profile that passes validation cleanly; tests mutate it.
func valid() Profile {
	return Profile{
		Job:    "demo",
		Source: Source{Kind: "file", File: SourceFile{Path: "in.csv"}},
		Parser: Parser{Kind: "csv"},
	}
}

func TestValidateClean(t *testing.T) {
	t.Parallel()

	if issues := Validate(valid()); len(issues) != 0 {
		t.Fatalf("issues = %+v, want none", issues)
	}
}

func TestValidateJob(t *testing.T) {
	t.Parallel()

	p := valid()
	p.Job = "  "
	if !hasIssue(Validate(p), SeverityWarning, "job", "empty") {
		t.Fatal("missing job warning")
	}
}

func TestValidateSource(t *testing.T) {
	t.Parallel()

	p := valid()
	p.Source = Source{}
	if !hasIssue(Validate(p), SeverityError, "source.kind", "required") {
		t.Fatal("missing source.kind error")
	}

	p.Source = Source{Kind: "file"}
	if !hasIssue(Validate(p), SeverityError, "source.file.path", "required") {
		t.Fatal("missing file path error")
	}

	p.Source = Source{Kind: "http"}
	if !hasIssue(Validate(p), SeverityError, "source.http.url", "required") {
		t.Fatal("missing http url error")
	}

	p.Source = Source{Kind: "ftp"}
	if !hasIssue(Validate(p), SeverityError, "source.kind", "unknown source kind") {
		t.Fatal("unknown source kind not flagged")
	}
}

func TestValidateParser(t *testing.T) {
	t.Parallel()

	p := valid()
	p.Parser.Kind = ""
	if !hasIssue(Validate(p), SeverityError, "parser.kind", "required") {
		t.Fatal("missing parser kind error")
	}

	p.Parser.Kind = "xml"
	if !hasIssue(Validate(p), SeverityError, "parser.kind", "unknown parser kind") {
		t.Fatal("unknown parser kind not flagged")
	}

	p.Parser.Kind = "jsonl"
	if issues := Validate(p); len(issues) != 0 {
		t.Fatalf("jsonl flagged: %+v", issues)
	}
}

func TestValidateProfiler(t *testing.T) {
	t.Parallel()

	p := valid()
	p.Profiler.ConfidenceThreshold = 1.5
	if !hasIssue(Validate(p), SeverityError, "profiler.confidence_threshold", "out of range") {
		t.Fatal("threshold not flagged")
	}

	p = valid()
	p.Profiler.Workers = -1
	if !hasIssue(Validate(p), SeverityError, "profiler.workers", ">= 0") {
		t.Fatal("negative workers not flagged")
	}

	p = valid()
	p.Profiler.MaxRows = -5
	if !hasIssue(Validate(p), SeverityError, "profiler", "cutoffs") {
		t.Fatal("negative cutoff not flagged")
	}

	p = valid()
	p.Profiler.SketchPrecision = 30
	if !hasIssue(Validate(p), SeverityError, "profiler.sketch_precision", "") {
		t.Fatal("bad sketch precision not flagged")
	}

	p = valid()
	p.Profiler.EmptyInput = "panic"
	if !hasIssue(Validate(p), SeverityError, "profiler.empty_input", "unknown policy") {
		t.Fatal("bad empty input policy not flagged")
	}

	// Zero values select defaults and must pass.
	p = valid()
	if issues := Validate(p); len(issues) != 0 {
		t.Fatalf("zero profiler config flagged: %+v", issues)
	}
}

func TestValidateExpected(t *testing.T) {
	t.Parallel()

	p := valid()
	p.Expected = &schema.Contract{Columns: []schema.ContractColumn{
		{Name: "x", Type: "varchar"},
	}}
	if !hasIssue(Validate(p), SeverityError, "expected", "unknown column type") {
		t.Fatal("bad contract not flagged")
	}
}

func TestValidateStorage(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"postgres", "sqlite", "mssql"} {
		p := valid()
		p.Storage = Storage{Kind: kind}
		if !hasIssue(Validate(p), SeverityError, "storage.db.dsn", "dsn is required") {
			t.Fatalf("%s without DSN not flagged", kind)
		}
		p.Storage.DB.DSN = "dsn://x"
		if issues := Validate(p); len(issues) != 0 {
			t.Fatalf("%s with DSN flagged: %+v", kind, issues)
		}
	}

	p := valid()
	p.Storage.Kind = "cassandra"
	if !hasIssue(Validate(p), SeverityError, "storage.kind", "unknown storage kind") {
		t.Fatal("unknown storage kind not flagged")
	}
}

func TestValidateMetrics(t *testing.T) {
	t.Parallel()

	p := valid()
	p.Metrics.Backend = "pushgateway"
	if !hasIssue(Validate(p), SeverityWarning, "metrics.pushgateway_url", "default") {
		t.Fatal("missing pushgateway URL warning")
	}

	p = valid()
	p.Metrics.Backend = "datadog"
	if !hasIssue(Validate(p), SeverityError, "metrics.dogstatsd_addr", "required") {
		t.Fatal("missing dogstatsd address not flagged")
	}

	p = valid()
	p.Metrics.Backend = "graphite"
	if !hasIssue(Validate(p), SeverityError, "metrics.backend", "unknown metrics backend") {
		t.Fatal("unknown metrics backend not flagged")
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{SeverityError, "storage.kind", "boom"}
	if got := iss.Error(); got != "error at storage.kind: boom" {
		t.Fatalf("Error() = %q", got)
	}
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conform/internal/config"
	"conform/internal/datasource"
	"conform/internal/datasource/file"
	"conform/internal/profile"
	"conform/internal/schema"
)

// TestConformSources replays a CSV source against an inferred schema and
// checks the JSON-lines output: castable cells are converted, uncastable
// cells are nulled.
func TestConformSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("id,flag\n1,true\noops,false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out.jsonl")

	p := config.Profile{
		Job:    "conform_test",
		Parser: config.Parser{Kind: "csv", Options: config.Options{}},
	}
	rep := &profile.Report{Schema: schema.Schema{Columns: []schema.ColumnDef{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "flag", Type: schema.TypeBoolean},
	}}}
	sources := []datasource.Source{file.NewLocal(in)}

	err := conformSources(context.Background(), p, rep, sources, runOptions{conformOut: outPath})
	if err != nil {
		t.Fatalf("conformSources: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %d, want 2:\n%s", len(lines), data)
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first["id"] != float64(1) || first["flag"] != true {
		t.Fatalf("row 1 = %v", first)
	}
	// "oops" cannot become an integer and is nulled.
	if second["id"] != nil || second["flag"] != false {
		t.Fatalf("row 2 = %v", second)
	}
}

// TestConformSourcesStrict fails the run on the first uncastable cell.
func TestConformSourcesStrict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("id\noops\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := config.Profile{
		Job:    "conform_test",
		Parser: config.Parser{Kind: "csv", Options: config.Options{}},
	}
	rep := &profile.Report{Schema: schema.Schema{Columns: []schema.ColumnDef{
		{Name: "id", Type: schema.TypeInteger},
	}}}
	sources := []datasource.Source{file.NewLocal(in)}
	opts := runOptions{
		conformOut:    filepath.Join(dir, "out.jsonl"),
		conformStrict: true,
	}

	if err := conformSources(context.Background(), p, rep, sources, opts); err == nil {
		t.Fatal("strict conform accepted an uncastable cell")
	}
}

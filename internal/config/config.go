// Package config defines the canonical, JSON-serializable configuration
// model for a conform profiling run. It is intentionally small, explicit,
// and dependency-free so that profiles can be loaded from disk (or other
// sources) and passed through the program without additional glue code.
//
// The profiling core never loads configuration itself: the loaded Profile is
// translated into the core's own Config by the caller (see cmd/profile).
//
// Example (trimmed):
//
//	{
//	  "job":      "hr_events",
//	  "source":   { "kind": "file", "file": { "path": "data/hr.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "profiler": { "confidence_threshold": 0.95, "workers": 4 },
//	  "expected": { "name": "hr_events", "columns": [ ... ] },
//	  "storage":  { "kind": "postgres", "db": { "dsn": "...", "table": "conform.reports" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"conform/internal/schema"
)

// Profile is the top-level object decoded from a profile config file.
type Profile struct {
	// Job is the logical job name used in reports and metrics.
	Job string `json:"job"`

	// Source describes where input data comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes become record batches.
	Parser Parser `json:"parser"`

	// Profiler tunes the profiling core.
	Profiler ProfilerConfig `json:"profiler"`

	// Expected is the optional expected schema contract.
	Expected *schema.Contract `json:"expected,omitempty"`

	// Storage selects the optional report sink.
	Storage Storage `json:"storage"`

	// Metrics selects the optional metrics backend.
	Metrics Metrics `json:"metrics"`
}

// ProfilerConfig tunes the core engine. Zero values select the documented
// defaults.
type ProfilerConfig struct {
	// ConfidenceThreshold for accepting a dominant type bucket (default 0.95).
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// Workers bounds parallel batch profiling (default GOMAXPROCS).
	Workers int `json:"workers"`

	// BatchSize is the row count per batch cut by the parsers (default 5000).
	BatchSize int `json:"batch_size"`

	// MaxBatches / MaxRows are sampling cutoffs; zero means unlimited.
	MaxBatches int64 `json:"max_batches"`
	MaxRows    int64 `json:"max_rows"`

	// SketchPrecision is the HyperLogLog precision p (default 14).
	SketchPrecision uint8 `json:"sketch_precision"`

	// SketchCutover is the exact-set size before approximate counting
	// (default 256).
	SketchCutover int `json:"sketch_cutover"`

	// EmptyInput selects the empty-input policy: "unknown" (default) or
	// "anomaly".
	EmptyInput string `json:"empty_input"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL is the remote location of the input file.
	URL string `json:"url"`

	// AllowInsecureTLS skips TLS certificate verification (useful for
	// self-signed / internal endpoints).
	AllowInsecureTLS bool `json:"allow_insecure_tls"`
}

// Parser selects how raw bytes become batches.
type Parser struct {
	// Kind selects the parser implementation: "csv" or "jsonl".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), trim_space (bool),
	//   lazy_quotes (bool)
	Options Options `json:"options"`
}

// Storage selects the sink used to persist finalized reports.
type Storage struct {
	// Kind selects the storage implementation: "none" (default),
	// "postgres", "sqlite", or "mssql".
	Kind string `json:"kind"`

	// DB configures the selected database sink.
	DB DBConfig `json:"db"`
}

// DBConfig configures a database report sink.
type DBConfig struct {
	// DSN is the connection string for the selected driver.
	DSN string `json:"dsn"`

	// Table is the report table name (defaults to "conform_reports").
	Table string `json:"table"`
}

// Metrics selects and configures a metrics backend.
type Metrics struct {
	// Backend is "none" (default), "pushgateway", or "datadog".
	Backend string `json:"backend"`

	// PushgatewayURL is the Prometheus Pushgateway base URL.
	PushgatewayURL string `json:"pushgateway_url"`

	// DogstatsdAddr is the DogStatsD address, e.g. "127.0.0.1:8125".
	DogstatsdAddr string `json:"dogstatsd_addr"`
}

// Load reads and decodes a profile config file.
func Load(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes a profile config from r.
func Decode(r io.Reader) (Profile, error) {
	var p Profile
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode config: %w", err)
	}
	// UnmarshalJSON never runs for an absent "options" key; normalize so
	// callers can index Options without a nil check.
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	return p, nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
//
// Options is used for parser-specific configuration where the shape varies
// by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such
// as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive).
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

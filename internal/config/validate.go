// Package config provides configuration models and helpers for profiling runs.
//
// This file adds a lightweight linter/validator for Profile values. It
// performs static checks over a decoded Profile and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"conform/internal/sketch"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Profile.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "profiler.confidence_threshold"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation / linting of a Profile.
//
// It does not mutate the profile. Instead it returns a slice of Issue values;
// callers may decide whether to treat warnings as fatal or not.
func Validate(p Profile) []Issue {
	var issues []Issue

	errf := func(path, format string, args ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, args...)})
	}
	warnf := func(path, format string, args ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		warnf("job", "job name is empty; reports and metrics will be unlabeled")
	}

	switch p.Source.Kind {
	case "file":
		if strings.TrimSpace(p.Source.File.Path) == "" {
			errf("source.file.path", "path is required for the file source")
		}
	case "http":
		if strings.TrimSpace(p.Source.HTTP.URL) == "" {
			errf("source.http.url", "url is required for the http source")
		}
	case "":
		errf("source.kind", "source kind is required")
	default:
		errf("source.kind", "unknown source kind %q (expected file or http)", p.Source.Kind)
	}

	switch p.Parser.Kind {
	case "csv", "jsonl":
	case "":
		errf("parser.kind", "parser kind is required")
	default:
		errf("parser.kind", "unknown parser kind %q (expected csv or jsonl)", p.Parser.Kind)
	}

	pc := p.Profiler
	if pc.ConfidenceThreshold < 0 || pc.ConfidenceThreshold > 1 {
		errf("profiler.confidence_threshold", "threshold %v out of range [0,1]", pc.ConfidenceThreshold)
	}
	if pc.Workers < 0 {
		errf("profiler.workers", "workers must be >= 0")
	}
	if pc.BatchSize < 0 {
		errf("profiler.batch_size", "batch_size must be >= 0")
	}
	if pc.MaxBatches < 0 || pc.MaxRows < 0 {
		errf("profiler", "sampling cutoffs must be >= 0")
	}
	if err := (sketch.Config{Precision: pc.SketchPrecision, Cutover: pc.SketchCutover}).Validate(); err != nil {
		errf("profiler.sketch_precision", "%v", err)
	}
	switch pc.EmptyInput {
	case "", "unknown", "anomaly":
	default:
		errf("profiler.empty_input", "unknown policy %q (expected unknown or anomaly)", pc.EmptyInput)
	}

	if p.Expected != nil {
		if _, err := p.Expected.Schema(); err != nil {
			errf("expected", "%v", err)
		}
	}

	switch p.Storage.Kind {
	case "", "none":
	case "postgres", "sqlite", "mssql":
		if strings.TrimSpace(p.Storage.DB.DSN) == "" {
			errf("storage.db.dsn", "dsn is required for the %s sink", p.Storage.Kind)
		}
	default:
		errf("storage.kind", "unknown storage kind %q", p.Storage.Kind)
	}

	switch p.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(p.Metrics.PushgatewayURL) == "" {
			warnf("metrics.pushgateway_url", "no URL configured; default http://localhost:9091 will be used")
		}
	case "datadog":
		if strings.TrimSpace(p.Metrics.DogstatsdAddr) == "" {
			errf("metrics.dogstatsd_addr", "address is required for the datadog backend")
		}
	default:
		errf("metrics.backend", "unknown metrics backend %q", p.Metrics.Backend)
	}

	return issues
}

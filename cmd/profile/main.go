package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"conform/internal/config"
	"conform/internal/metrics"
	"conform/internal/metrics/datadog"
	"conform/internal/metrics/prompush"
)

// main is the entry point for the profile binary. It loads the run config,
// optionally initializes a metrics backend, and executes the streaming run.
func main() {
	var (
		cfgPath           string
		inputFlg          string
		inputListFlg      string
		outFlg            string
		ddlFlg            string
		tableFlg          string
		applyDDLFlg       bool
		conformOutFlg     string
		conformStrictFlg  bool
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
		indent            bool
	)

	flag.StringVar(&cfgPath, "config", "configs/sample.json", "profile config JSON path")
	flag.StringVar(&inputFlg, "input", "", "input file path (overrides source.file.path)")
	flag.StringVar(&inputListFlg, "input-list", "", "file listing input paths, one per line, profiled into a single report")
	flag.StringVar(&outFlg, "out", "-", "report output path ('-' for stdout)")
	flag.StringVar(&ddlFlg, "ddl", "", "emit CREATE TABLE for the inferred schema (postgres, sqlite, mssql)")
	flag.StringVar(&tableFlg, "table", "", "table name for -ddl (defaults to the job name)")
	flag.BoolVar(&applyDDLFlg, "ddl-apply", false, "execute the -ddl statement against the configured storage backend")
	flag.StringVar(&conformOutFlg, "conform-out", "", "replay the input cast onto the inferred schema and write JSON lines to this path")
	flag.BoolVar(&conformStrictFlg, "conform-strict", false, "fail the run on the first cell that cannot be cast (default: null and count)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address for the datadog backend")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&indent, "indent", true, "pretty-print the JSON report")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if inputFlg != "" {
		p.Source.Kind = "file"
		p.Source.File.Path = inputFlg
	}
	if inputListFlg != "" {
		// The list file stands in for source.file.path so validation passes;
		// run() expands it into the real inputs.
		p.Source.Kind = "file"
		p.Source.File.Path = inputListFlg
	}

	issues := config.Validate(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag -> config -> env.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = p.Metrics.Backend
	}
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = p.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		jobName := p.Job
		if jobName == "" {
			jobName = "conform"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			if *verbose {
				log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, jobName)
			}
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "datadog":
		addr := dogstatsdAddrFlg
		if addr == "" {
			addr = p.Metrics.DogstatsdAddr
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "conform.",
			GlobalTags: []string{"job:" + p.Job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("profile: source=%s parser=%s storage=%s",
			p.Source.Kind, p.Parser.Kind, p.Storage.Kind)
	}

	opts := runOptions{
		out:           outFlg,
		indent:        indent,
		ddl:           ddlFlg,
		table:         tableFlg,
		applyDDL:      applyDDLFlg,
		conformOut:    conformOutFlg,
		conformStrict: conformStrictFlg,
		inputList:     inputListFlg,
		verbose:       *verbose,
	}
	if err := run(ctx, p, opts); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

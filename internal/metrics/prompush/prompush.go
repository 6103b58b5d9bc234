// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the common profiling labels (job, stage, status) onto Prometheus
//     labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead of
//     exposing an HTTP scrape endpoint, since profiling runs are batch jobs
//     that exit before a scraper would find them.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the core
// profiler.
package prompush

import (
	"fmt"

	"conform/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Stage-level metrics
	stageCounter  *prometheus.CounterVec // "conform_stage_total"
	stageDuration *prometheus.SummaryVec // "conform_stage_duration_seconds"

	// Run-level metrics
	rowCounter     prometheus.Counter     // "conform_rows_total"
	batchCounter   prometheus.Counter     // "conform_batches_total"
	anomalyCounter *prometheus.CounterVec // "conform_anomalies_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as the profiling job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "conform"
	}

	reg := prometheus.NewRegistry()

	// Stage and status are dynamic labels; job is the Pushgateway grouping key.
	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conform_stage_total",
			Help: "Total number of profiling stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "conform_stage_duration_seconds",
			Help:       "Duration of profiling stages in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)

	rowCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conform_rows_total",
			Help: "Total number of rows profiled by this job.",
		},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conform_batches_total",
			Help: "Total number of batches profiled by this job.",
		},
	)
	anomalyCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conform_anomalies_total",
			Help: "Anomalies detected during profiling, partitioned by kind.",
		},
		[]string{"kind"},
	)

	if err := reg.Register(stageCounter); err != nil {
		return nil, fmt.Errorf("prompush: register stage counter: %w", err)
	}
	if err := reg.Register(stageDuration); err != nil {
		return nil, fmt.Errorf("prompush: register stage summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(batchCounter); err != nil {
		return nil, fmt.Errorf("prompush: register batch counter: %w", err)
	}
	if err := reg.Register(anomalyCounter); err != nil {
		return nil, fmt.Errorf("prompush: register anomaly counter: %w", err)
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		stageCounter:   stageCounter,
		stageDuration:  stageDuration,
		rowCounter:     rowCounter,
		batchCounter:   batchCounter,
		anomalyCounter: anomalyCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "conform_stage_total":
		if b.stageCounter == nil {
			return
		}
		stage := labels["stage"]
		status := labels["status"]
		b.stageCounter.WithLabelValues(stage, status).Add(delta)

	case "conform_rows_total":
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.Add(delta)

	case "conform_batches_total":
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)

	case "conform_anomalies_total":
		if b.anomalyCounter == nil {
			return
		}
		kind := labels["kind"]
		b.anomalyCounter.WithLabelValues(kind).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "conform_stage_duration_seconds" || b.stageDuration == nil {
		return
	}
	stage := labels["stage"]
	status := labels["status"]
	b.stageDuration.WithLabelValues(stage, status).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}

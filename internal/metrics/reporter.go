// Package metrics pushes per-run gauges to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"

	"fxwatch/internal/quote"
)

const defaultJob = "fxwatch"

// Run is the outcome of one pipeline run as seen by the reporter.
type Run struct {
	ID           string
	Pair         quote.Pair
	Record       *quote.Record
	Stages       map[string]string
	FetchFailure string
	FinishedAt   time.Time
}

// Options configures a Reporter.
type Options struct {
	PushgatewayURL string
	Job            string
	Timeout        time.Duration
}

// Reporter pushes one registry per run. A Reporter with no URL is disabled.
type Reporter struct {
	url     string
	job     string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewReporter builds a Reporter from options.
func NewReporter(opts Options, logger zerolog.Logger) *Reporter {
	job := strings.TrimSpace(opts.Job)
	if job == "" {
		job = defaultJob
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reporter{
		url:     strings.TrimSpace(opts.PushgatewayURL),
		job:     job,
		timeout: timeout,
		logger:  logger.With().Str("component", "metrics").Logger(),
	}
}

// Enabled reports whether a Pushgateway URL is configured.
func (r *Reporter) Enabled() bool {
	return r != nil && r.url != ""
}

// Report pushes the gauges describing run.
func (r *Reporter) Report(ctx context.Context, run Run) error {
	if !r.Enabled() {
		return nil
	}

	reg := Collect(run)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// One group per pair, so each push replaces the previous run's values.
	pusher := push.New(r.url, r.job).
		Gatherer(reg).
		Grouping("pair", run.Pair.Key())
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}

	r.logger.Debug().Str("run_id", run.ID).Msg("metrics pushed")
	return nil
}

// Collect builds a fresh registry holding the gauges for run.
func Collect(run Run) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	// The pair is a grouping label on push, so these gauges carry no pair label.
	amount := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fxwatch_quote_amount",
		Help: "Latest fetched quote amount.",
	})
	change := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fxwatch_quote_percent_change",
		Help: "Latest fetched percent change.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fxwatch_last_run_timestamp_seconds",
		Help: "Unix time the run finished.",
	})
	stage := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fxwatch_stage_outcome",
		Help: "Set to 1 for the outcome each stage reached.",
	}, []string{"stage", "outcome"})
	failure := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fxwatch_fetch_failure",
		Help: "Set to 1 when the fetch failed, labelled by kind.",
	}, []string{"kind"})

	reg.MustRegister(lastRun, stage, failure)

	if run.Record != nil {
		reg.MustRegister(amount, change)
		amount.Set(run.Record.Amount.InexactFloat64())
		change.Set(run.Record.PercentChange.InexactFloat64())
	}
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	lastRun.Set(float64(finished.Unix()))
	for name, outcome := range run.Stages {
		stage.WithLabelValues(name, outcome).Set(1)
	}
	if run.FetchFailure != "" {
		failure.WithLabelValues(run.FetchFailure).Set(1)
	}

	return reg
}

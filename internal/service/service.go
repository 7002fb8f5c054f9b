package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fxwatch/internal/alerting"
	"fxwatch/internal/fetcher"
	"fxwatch/internal/metrics"
	"fxwatch/internal/quote"
	"fxwatch/internal/recorder"
)

// ErrRecorderUnavailable is reported when no tabular store handle was acquired.
var ErrRecorderUnavailable = errors.New("recorder unavailable")

// QuoteRecorder appends a record to the tabular store.
type QuoteRecorder interface {
	Record(ctx context.Context, rec quote.Record) recorder.Result
}

// QuoteAlerter decides on and submits an alert for a record.
type QuoteAlerter interface {
	Evaluate(ctx context.Context, rec quote.Record, policy quote.Policy) alerting.Result
}

// RunReporter publishes the outcome of a run.
type RunReporter interface {
	Report(ctx context.Context, run metrics.Run) error
}

// UnavailableRecorder stands in when the tabular store could not be opened.
// Every Record call reports StatusError wrapping ErrRecorderUnavailable and cause.
func UnavailableRecorder(cause error) QuoteRecorder {
	return unavailableRecorder{err: fmt.Errorf("%w: %w", ErrRecorderUnavailable, cause)}
}

type unavailableRecorder struct {
	err error
}

func (u unavailableRecorder) Record(context.Context, quote.Record) recorder.Result {
	return recorder.Result{Status: recorder.StatusError, Err: u.err}
}

// Pipeline runs fetch, record and alert once for a single pair.
type Pipeline struct {
	fetcher  fetcher.Fetcher
	pair     quote.Pair
	recorder QuoteRecorder
	alerter  QuoteAlerter
	policy   quote.Policy
	reporter RunReporter
	logger   zerolog.Logger
	now      func() time.Time
}

// New constructs a pipeline. recorder and reporter may be nil.
func New(f fetcher.Fetcher, pair quote.Pair, rec QuoteRecorder, alerter QuoteAlerter, policy quote.Policy, reporter RunReporter, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		pair:     pair,
		recorder: rec,
		alerter:  alerter,
		policy:   policy,
		reporter: reporter,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		now:      time.Now,
	}
}

// Run executes one pass. The returned error is non-nil only when the fetch
// failed, in which case neither the recorder nor the alerter is invoked.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString(), Pair: p.pair}
	logger := p.logger.With().Str("run_id", report.RunID).Str("pair", p.pair.String()).Logger()

	rec, err := p.fetcher.Fetch(ctx, p.pair)
	if err != nil {
		logger.Error().Err(err).Str("kind", fetcher.Kind(err)).Msg("fetch failed; skipping record and alert")
		p.report(ctx, logger, report, fetcher.Kind(err))
		return report, fmt.Errorf("fetch %s: %w", p.pair, err)
	}
	report.Record = &rec

	logger.Info().
		Str("amount", rec.Amount.String()).
		Str("pct_change", rec.PercentChange.String()).
		Time("observed_at", rec.ObservedAt).
		Msg("quote fetched")

	report.Recorded = p.record(ctx, logger, rec)
	report.Alert = p.alerter.Evaluate(ctx, rec, p.policy)

	logger.Info().
		Str("record", report.Recorded.Status.String()).
		Str("alert", report.Alert.Outcome.String()).
		Msg("pipeline finished")

	p.report(ctx, logger, report, "")
	return report, nil
}

func (p *Pipeline) record(ctx context.Context, logger zerolog.Logger, rec quote.Record) recorder.Result {
	if p.recorder == nil {
		logger.Warn().Msg("no tabular store configured; row not recorded")
		return recorder.Result{Status: recorder.StatusError, Err: ErrRecorderUnavailable}
	}

	res := p.recorder.Record(ctx, rec)
	if res.Err != nil {
		logger.Warn().Err(res.Err).Str("status", res.Status.String()).Msg("record failed; continuing to alert")
	}
	return res
}

func (p *Pipeline) report(ctx context.Context, logger zerolog.Logger, report Report, fetchFailure string) {
	if p.reporter == nil {
		return
	}

	run := metrics.Run{
		ID:           report.RunID,
		Pair:         p.pair,
		Record:       report.Record,
		FetchFailure: fetchFailure,
		FinishedAt:   p.now(),
	}
	if report.Record != nil {
		run.Stages = map[string]string{
			"record": report.Recorded.Status.String(),
			"alert":  report.Alert.Outcome.String(),
		}
	}

	if err := p.reporter.Report(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("metrics report failed")
	}
}

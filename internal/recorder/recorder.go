package recorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"fxwatch/internal/quote"
	"fxwatch/internal/storage"
)

// Table is an append-only, row-oriented remote store.
type Table interface {
	ReadAll(ctx context.Context) ([][]string, error)
	AppendRow(ctx context.Context, cells []string) error
}

// Status is the discriminant of a Record call.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// Result describes what Record did.
type Result struct {
	Status        Status
	HeaderWritten bool
	Err           error
}

// Recorder appends one row per record to a Table.
type Recorder struct {
	table  Table
	policy quote.Policy
	logger zerolog.Logger
}

// New wires a table and the shared threshold policy into a Recorder.
func New(table Table, policy quote.Policy, logger zerolog.Logger) *Recorder {
	return &Recorder{
		table:  table,
		policy: policy,
		logger: logger.With().Str("component", "recorder").Logger(),
	}
}

// Record writes the header when the table is empty, then the data row.
// It never returns an error; failures are reported through Result.
func (r *Recorder) Record(ctx context.Context, rec quote.Record) Result {
	rows, err := r.table.ReadAll(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("read rows: %w", err), false)
	}

	headerWritten := false
	if len(rows) == 0 {
		if err := r.table.AppendRow(ctx, Header); err != nil {
			return r.fail(fmt.Errorf("append header: %w", err), false)
		}
		headerWritten = true
		r.logger.Info().Msg("header row created")
	}

	status := r.policy.Status(rec)
	if err := r.table.AppendRow(ctx, FormatRow(rec, status)); err != nil {
		return r.fail(fmt.Errorf("append row: %w", err), headerWritten)
	}

	r.logger.Info().
		Str("pair", rec.Pair.String()).
		Str("amount", rec.Amount.StringFixed(4)).
		Str("status", string(status)).
		Msg("quote recorded")
	return Result{Status: StatusSuccess, HeaderWritten: headerWritten}
}

func (r *Recorder) fail(err error, headerWritten bool) Result {
	if errors.Is(err, storage.ErrTableNotFound) {
		r.logger.Warn().Err(err).Msg("table not found; check the identifier and its sharing settings")
		return Result{Status: StatusNotFound, HeaderWritten: headerWritten, Err: err}
	}
	r.logger.Error().Err(err).Msg("failed to record quote")
	return Result{Status: StatusError, HeaderWritten: headerWritten, Err: err}
}

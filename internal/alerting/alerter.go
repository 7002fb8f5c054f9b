package alerting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"fxwatch/internal/quote"
)

// ErrMissingCredentials indicates card creation was skipped for lack of credentials.
var ErrMissingCredentials = errors.New("trello credentials missing")

// Outcome is the terminal state of one evaluation.
type Outcome int

const (
	OutcomeBelowThreshold Outcome = iota
	OutcomeCreated
	OutcomeSuppressedMissingCredentials
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBelowThreshold:
		return "below_threshold"
	case OutcomeCreated:
		return "created"
	case OutcomeSuppressedMissingCredentials:
		return "suppressed_missing_credentials"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what Evaluate did. Card is set only for OutcomeCreated.
type Result struct {
	Outcome Outcome
	Card    Card
	Err     error
}

// Alerter turns a record above the threshold into exactly one card.
type Alerter struct {
	creator  CardCreator
	creds    Credentials
	position string
	logger   zerolog.Logger
}

// NewAlerter wires a card creator and its credentials.
func NewAlerter(creator CardCreator, creds Credentials, position string, logger zerolog.Logger) *Alerter {
	return &Alerter{
		creator:  creator,
		creds:    creds,
		position: position,
		logger:   logger.With().Str("component", "alerter").Logger(),
	}
}

// Evaluate compares the record against the policy and submits a card when exceeded.
func (a *Alerter) Evaluate(ctx context.Context, rec quote.Record, policy quote.Policy) Result {
	if !policy.Exceeded(rec) {
		a.logger.Info().
			Str("amount", rec.Amount.StringFixed(2)).
			Str("threshold", policy.Threshold.StringFixed(2)).
			Msg("quote within threshold; no alert needed")
		return Result{Outcome: OutcomeBelowThreshold}
	}

	a.logger.Warn().
		Str("amount", rec.Amount.StringFixed(2)).
		Str("threshold", policy.Threshold.StringFixed(2)).
		Msg("quote above threshold")

	if missing := a.creds.Missing(); len(missing) > 0 {
		err := fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
		a.logger.Warn().Err(err).Msg("alert card suppressed")
		return Result{Outcome: OutcomeSuppressedMissingCredentials, Err: err}
	}

	card, err := a.creator.CreateCard(ctx, a.creds, CardRequest{
		Name:        RenderTitle(rec),
		Description: RenderDescription(rec, policy),
		Position:    a.position,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to create alert card")
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	a.logger.Info().Str("url", card.URL).Msg("alert card created")
	return Result{Outcome: OutcomeCreated, Card: card}
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fxwatch/internal/alerting"
	"fxwatch/internal/quote"
)

// SimulateAlert runs only the alert stage against a synthetic quote.
func (a *App) SimulateAlert(ctx context.Context, amount, change decimal.Decimal) error {
	pair, err := a.pair()
	if err != nil {
		return err
	}

	rec, err := quote.NewRecord(pair, amount, change, time.Now().UTC().Truncate(time.Second))
	if err != nil {
		return err
	}

	res := a.newAlerter().Evaluate(ctx, rec, a.policy())
	switch res.Outcome {
	case alerting.OutcomeCreated:
		fmt.Fprintf(a.Out, "alert: created %s\n", res.Card.URL)
	case alerting.OutcomeBelowThreshold:
		fmt.Fprintf(a.Out, "alert: below_threshold (%s <= %s)\n", amount.StringFixed(2), a.policy().Threshold.StringFixed(2))
	case alerting.OutcomeSuppressedMissingCredentials:
		fmt.Fprintf(a.Out, "alert: suppressed_missing_credentials: %v\n", res.Err)
	default:
		fmt.Fprintf(a.Out, "alert: %s: %v\n", res.Outcome, res.Err)
		return res.Err
	}
	return nil
}

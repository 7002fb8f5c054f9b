package service

import (
	"fmt"
	"time"

	"fxwatch/internal/alerting"
	"fxwatch/internal/quote"
	"fxwatch/internal/recorder"
)

// Report is the per-stage outcome of one pipeline run.
type Report struct {
	RunID    string
	Pair     quote.Pair
	Record   *quote.Record
	Recorded recorder.Result
	Alert    alerting.Result
}

// Summary renders one human-readable line per stage.
func (r Report) Summary() []string {
	if r.Record == nil {
		return []string{fmt.Sprintf("fetch: failed for %s", r.Pair)}
	}

	lines := []string{
		fmt.Sprintf("fetch: %s = %s (%s%%) at %s",
			r.Record.Pair, r.Record.Amount.StringFixed(4), r.Record.PercentChange.StringFixed(2),
			r.Record.ObservedAt.UTC().Format(time.RFC3339)),
	}

	record := "record: " + r.Recorded.Status.String()
	if r.Recorded.HeaderWritten {
		record += " (header written)"
	}
	if r.Recorded.Err != nil {
		record += ": " + r.Recorded.Err.Error()
	}
	lines = append(lines, record)

	alert := "alert: " + r.Alert.Outcome.String()
	switch {
	case r.Alert.Outcome == alerting.OutcomeCreated:
		alert += " " + r.Alert.Card.URL
	case r.Alert.Err != nil:
		alert += ": " + r.Alert.Err.Error()
	}
	lines = append(lines, alert)

	return lines
}

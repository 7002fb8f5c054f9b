package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"fxwatch/internal/recorder"
)

var errNoTable = errors.New("no tabular store configured")

// Show prints the most recent recorded rows.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	rows, err := a.loadRows(ctx)
	if err != nil {
		return err
	}
	return writeRowsTable(a.Out, lastRows(rows, opts.Limit))
}

func (a *App) loadRows(ctx context.Context) ([]recorder.Row, error) {
	table, closeTable, err := a.openTable(ctx)
	if err != nil {
		return nil, err
	}
	if closeTable != nil {
		defer closeTable()
	}
	if table == nil {
		return nil, errNoTable
	}

	raw, err := table.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return recorder.ParseRows(raw), nil
}

func lastRows(rows []recorder.Row, limit int) []recorder.Row {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[len(rows)-limit:]
}

func writeRowsTable(out io.Writer, rows []recorder.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "no rows recorded")
		return err
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Observed (UTC)\tPair\tAmount\tChange%\tStatus")
	for _, row := range rows {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			row.ObservedAt.UTC().Format(time.RFC3339),
			row.Pair,
			row.Amount.StringFixed(4),
			row.PercentChange.StringFixed(2),
			row.Status,
		)
	}
	return writer.Flush()
}

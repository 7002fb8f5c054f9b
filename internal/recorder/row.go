package recorder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxwatch/internal/quote"
)

// Header is written once when the table holds no rows.
var Header = []string{"Observed At", "Pair", "Amount", "Change %", "Status"}

// ErrHeaderRow is returned by ParseRow for the header row.
var ErrHeaderRow = errors.New("header row")

// Row is a parsed data row.
type Row struct {
	ObservedAt    time.Time
	Pair          quote.Pair
	Amount        decimal.Decimal
	PercentChange decimal.Decimal
	Status        quote.Status
}

// FormatRow maps a record onto the column order of Header.
func FormatRow(rec quote.Record, status quote.Status) []string {
	return []string{
		rec.ObservedAt.UTC().Format(time.RFC3339),
		rec.Pair.String(),
		rec.Amount.StringFixed(4),
		rec.PercentChange.StringFixed(2),
		string(status),
	}
}

// ParseRow is the inverse of FormatRow.
func ParseRow(cells []string) (Row, error) {
	if len(cells) > 0 && cells[0] == Header[0] {
		return Row{}, ErrHeaderRow
	}
	if len(cells) < 3 {
		return Row{}, fmt.Errorf("row has %d cells, want at least 3", len(cells))
	}

	observed, err := time.Parse(time.RFC3339, strings.TrimSpace(cells[0]))
	if err != nil {
		return Row{}, fmt.Errorf("parse observed at: %w", err)
	}
	pair, err := quote.ParsePair(cells[1])
	if err != nil {
		return Row{}, fmt.Errorf("parse pair: %w", err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(cells[2]))
	if err != nil {
		return Row{}, fmt.Errorf("parse amount: %w", err)
	}

	row := Row{ObservedAt: observed, Pair: pair, Amount: amount}
	if len(cells) > 3 && strings.TrimSpace(cells[3]) != "" {
		if row.PercentChange, err = decimal.NewFromString(strings.TrimSpace(cells[3])); err != nil {
			return Row{}, fmt.Errorf("parse percent change: %w", err)
		}
	}
	if len(cells) > 4 {
		row.Status = quote.Status(strings.TrimSpace(cells[4]))
	}
	return row, nil
}

// ParseRows skips the header and any row that does not parse.
func ParseRows(rows [][]string) []Row {
	parsed := make([]Row, 0, len(rows))
	for _, cells := range rows {
		row, err := ParseRow(cells)
		if err != nil {
			continue
		}
		parsed = append(parsed, row)
	}
	return parsed
}

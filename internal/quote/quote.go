package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCode indicates a pair was built from a blank currency code.
	ErrEmptyCode = errors.New("currency code must not be empty")
	// ErrInvalidAmount indicates a quote whose amount is not a positive number.
	ErrInvalidAmount = errors.New("quote amount must be greater than zero")
)

// Pair identifies an exchange rate as base priced in quote currency.
type Pair struct {
	Base  string
	Quote string
}

// NewPair normalises both codes to upper case.
func NewPair(base, quote string) (Pair, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return Pair{}, ErrEmptyCode
	}
	return Pair{Base: base, Quote: quote}, nil
}

// ParsePair accepts "USD/BRL" or "USD-BRL".
func ParsePair(s string) (Pair, error) {
	sep := "/"
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	base, quote, ok := strings.Cut(s, sep)
	if !ok {
		return Pair{}, fmt.Errorf("invalid pair %q", s)
	}
	return NewPair(base, quote)
}

func (p Pair) String() string { return p.Base + "/" + p.Quote }

// Key is the concatenated code the provider uses as response key.
func (p Pair) Key() string { return p.Base + p.Quote }

// Path is the dash-joined code the provider expects in URLs.
func (p Pair) Path() string { return p.Base + "-" + p.Quote }

// Record is a single normalised observation of a pair.
type Record struct {
	Pair          Pair
	Amount        decimal.Decimal
	PercentChange decimal.Decimal
	ObservedAt    time.Time
}

// NewRecord validates the amount invariant before building a Record.
func NewRecord(pair Pair, amount, pctChange decimal.Decimal, observedAt time.Time) (Record, error) {
	if !amount.IsPositive() {
		return Record{}, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	return Record{
		Pair:          pair,
		Amount:        amount,
		PercentChange: pctChange,
		ObservedAt:    observedAt,
	}, nil
}

// Direction classifies the sign of the percent change.
func (r Record) Direction() string {
	switch r.PercentChange.Sign() {
	case 1:
		return "up"
	case -1:
		return "down"
	default:
		return "flat"
	}
}

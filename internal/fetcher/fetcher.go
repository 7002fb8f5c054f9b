package fetcher

import (
	"context"

	"fxwatch/internal/quote"
)

// Fetcher retrieves the latest quote for a currency pair.
type Fetcher interface {
	Fetch(ctx context.Context, pair quote.Pair) (quote.Record, error)
}

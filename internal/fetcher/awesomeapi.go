package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxwatch/internal/quote"
)

const (
	lastQuotePath    = "/json/last/"
	defaultBaseURL   = "https://economia.awesomeapi.com.br"
	defaultUserAgent = "fxwatch/1.0"
	createDateLayout = "2006-01-02 15:04:05"
	providerZone     = "America/Sao_Paulo"
	maxResponseBytes = 1 << 20
)

// providerLocation is the zone create_date is expressed in.
var providerLocation = loadProviderLocation()

func loadProviderLocation() *time.Location {
	loc, err := time.LoadLocation(providerZone)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Options parameterise the AwesomeAPI fetcher.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Now supplies capture time when the provider omits a usable timestamp.
	Now func() time.Time
}

// AwesomeAPI fetches the last quote of a pair from economia.awesomeapi.com.br.
type AwesomeAPI struct {
	baseURL   string
	userAgent string
	now       func() time.Time
	client    *http.Client
	logger    zerolog.Logger
}

// NewAwesomeAPI constructs a quote fetcher.
func NewAwesomeAPI(opts Options, logger zerolog.Logger) *AwesomeAPI {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &AwesomeAPI{
		baseURL:   baseURL,
		userAgent: userAgent,
		now:       now,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With().Str("component", "quote_fetcher").Logger(),
	}
}

// Fetch performs a single GET for the pair and normalises the answer.
func (a *AwesomeAPI) Fetch(ctx context.Context, pair quote.Pair) (quote.Record, error) {
	if pair.Base == "" || pair.Quote == "" {
		return quote.Record{}, quote.ErrEmptyCode
	}

	endpoint := a.baseURL + lastQuotePath + pair.Path()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return quote.Record{}, fmt.Errorf("create quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return quote.Record{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return quote.Record{}, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return quote.Record{}, parseHTTPError(resp.StatusCode, payload)
	}

	rec, err := a.decode(pair, payload)
	if err != nil {
		return quote.Record{}, err
	}

	a.logger.Debug().
		Str("pair", pair.String()).
		Str("amount", rec.Amount.String()).
		Str("pct_change", rec.PercentChange.String()).
		Time("observed_at", rec.ObservedAt).
		Msg("quote fetched")
	return rec, nil
}

type providerQuote struct {
	Code       string `json:"code"`
	CodeIn     string `json:"codein"`
	Name       string `json:"name"`
	Bid        string `json:"bid"`
	Ask        string `json:"ask"`
	PctChange  string `json:"pctChange"`
	Timestamp  string `json:"timestamp"`
	CreateDate string `json:"create_date"`
}

func (a *AwesomeAPI) decode(pair quote.Pair, payload []byte) (quote.Record, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		return quote.Record{}, schemaError("decode body: %v", err)
	}

	raw, ok := body[pair.Key()]
	if !ok {
		return quote.Record{}, schemaError("missing key %q", pair.Key())
	}

	var pq providerQuote
	if err := json.Unmarshal(raw, &pq); err != nil {
		return quote.Record{}, schemaError("decode %s: %v", pair.Key(), err)
	}

	bid, err := parseDecimalField("bid", pq.Bid)
	if err != nil {
		return quote.Record{}, err
	}
	pct, err := parseDecimalField("pctChange", pq.PctChange)
	if err != nil {
		return quote.Record{}, err
	}

	rec, err := quote.NewRecord(pair, bid, pct, a.observedAt(pq))
	if err != nil {
		return quote.Record{}, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	return rec, nil
}

func (a *AwesomeAPI) observedAt(pq providerQuote) time.Time {
	if sec, err := strconv.ParseInt(strings.TrimSpace(pq.Timestamp), 10, 64); err == nil && sec > 0 {
		return time.Unix(sec, 0).UTC()
	}
	if ts, err := time.ParseInLocation(createDateLayout, strings.TrimSpace(pq.CreateDate), providerLocation); err == nil {
		return ts.UTC()
	}
	return a.now().UTC().Truncate(time.Second)
}

func parseDecimalField(name, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Decimal{}, schemaError("missing field %q", name)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, schemaError("parse %s %q: %v", name, value, err)
	}
	return d, nil
}

var _ Fetcher = (*AwesomeAPI)(nil)

package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fxwatch/internal/quote"
)

var usdBRL = quote.Pair{Base: "USD", Quote: "BRL"}

const usdBRLBody = `{
	"USDBRL": {
		"code": "USD",
		"codein": "BRL",
		"name": "Dólar Americano/Real Brasileiro",
		"bid": "5.75",
		"ask": "5.7530",
		"pctChange": "2.50",
		"timestamp": "1705325400",
		"create_date": "2024-01-15 10:30:00"
	}
}`

func newTestFetcher(baseURL string, timeout time.Duration) *AwesomeAPI {
	return NewAwesomeAPI(Options{
		BaseURL: baseURL,
		Timeout: timeout,
		Now:     func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC) },
	}, testLogger())
}

func serveBody(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSuccess(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(usdBRLBody))
	}))
	t.Cleanup(srv.Close)

	rec, err := newTestFetcher(srv.URL+"/", time.Second).Fetch(context.Background(), usdBRL)
	require.NoError(t, err)
	require.Equal(t, "/json/last/USD-BRL", gotPath)
	require.Equal(t, "fxwatch/1.0", gotUA)
	require.Equal(t, usdBRL, rec.Pair)
	require.True(t, rec.Amount.Equal(decimal.RequireFromString("5.75")), "amount %s", rec.Amount)
	require.True(t, rec.PercentChange.Equal(decimal.RequireFromString("2.5")))
	require.Equal(t, time.Unix(1705325400, 0).UTC(), rec.ObservedAt)
}

func TestFetchBelowThresholdScenarioAmount(t *testing.T) {
	srv := serveBody(t, http.StatusOK, `{"USDBRL":{"bid":"5.10","pctChange":"-0.40","timestamp":"1705325400"}}`)

	rec, err := newTestFetcher(srv.URL, time.Second).Fetch(context.Background(), usdBRL)
	require.NoError(t, err)
	require.Equal(t, "5.1", rec.Amount.String())
	require.Equal(t, "down", rec.Direction())
}

func TestFetchFallsBackToCreateDate(t *testing.T) {
	srv := serveBody(t, http.StatusOK, `{"USDBRL":{"bid":"5.2","pctChange":"0","create_date":"2024-01-15 10:30:00"}}`)

	rec, err := newTestFetcher(srv.URL, time.Second).Fetch(context.Background(), usdBRL)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC), rec.ObservedAt)
}

func TestFetchFallsBackToCaptureTime(t *testing.T) {
	srv := serveBody(t, http.StatusOK, `{"USDBRL":{"bid":"5.2","pctChange":"0"}}`)

	rec, err := newTestFetcher(srv.URL, time.Second).Fetch(context.Background(), usdBRL)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), rec.ObservedAt)
}

func TestFetchIsRepeatable(t *testing.T) {
	srv := serveBody(t, http.StatusOK, usdBRLBody)
	f := newTestFetcher(srv.URL, time.Second)

	first, err := f.Fetch(context.Background(), usdBRL)
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), usdBRL)
	require.NoError(t, err)

	require.Equal(t, first.Pair, second.Pair)
	require.True(t, first.Amount.Equal(second.Amount))
	require.True(t, first.PercentChange.Equal(second.PercentChange))
	require.Equal(t, first.ObservedAt, second.ObservedAt)
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	_, err := newTestFetcher(srv.URL, 50*time.Millisecond).Fetch(context.Background(), usdBRL)
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, "timeout", Kind(err))
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	_, err := newTestFetcher(baseURL, time.Second).Fetch(context.Background(), usdBRL)
	require.ErrorIs(t, err, ErrUnreachable)
	require.NotErrorIs(t, err, ErrTimeout)
	require.Equal(t, "unreachable", Kind(err))
}

func TestFetchHTTPError(t *testing.T) {
	srv := serveBody(t, http.StatusNotFound, `{"status":404,"code":"CoinNotExists","message":"moeda nao encontrada USD-XXX"}`)

	_, err := newTestFetcher(srv.URL, time.Second).Fetch(context.Background(), quote.Pair{Base: "USD", Quote: "XXX"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, "moeda nao encontrada USD-XXX", statusErr.Message)
	require.Contains(t, err.Error(), "moeda nao encontrada")
	require.Equal(t, "http_status", Kind(err))
}

func TestFetchHTTPErrorPlainBody(t *testing.T) {
	srv := serveBody(t, http.StatusBadGateway, "bad gateway\n")

	_, err := newTestFetcher(srv.URL, time.Second).Fetch(context.Background(), usdBRL)
	require.EqualError(t, err, "quote provider error (502): bad gateway")
}

func TestFetchSchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `{`,
		"missing key":      `{"EURBRL":{"bid":"6.1","pctChange":"0.1"}}`,
		"missing bid":      `{"USDBRL":{"pctChange":"0.1"}}`,
		"bid not numeric":  `{"USDBRL":{"bid":"abc","pctChange":"0.1"}}`,
		"bid as number":    `{"USDBRL":{"bid":5.1,"pctChange":"0.1"}}`,
		"missing change":   `{"USDBRL":{"bid":"5.1"}}`,
		"zero bid":         `{"USDBRL":{"bid":"0","pctChange":"0.1"}}`,
		"negative bid":     `{"USDBRL":{"bid":"-5.1","pctChange":"0.1"}}`,
		"not finite bid":   `{"USDBRL":{"bid":"NaN","pctChange":"0.1"}}`,
		"array top level":  `[]`,
		"key holds string": `{"USDBRL":"5.1"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := serveBody(t, http.StatusOK, body)
			_, err := newTestFetcher(srv.URL, time.Second).Fetch(context.Background(), usdBRL)
			require.ErrorIs(t, err, ErrSchemaMismatch)
			require.Equal(t, "schema", Kind(err))
		})
	}
}

func TestFetchNonPositiveBidWrapsInvalidAmount(t *testing.T) {
	srv := serveBody(t, http.StatusOK, `{"USDBRL":{"bid":"0","pctChange":"0"}}`)

	_, err := newTestFetcher(srv.URL, time.Second).Fetch(context.Background(), usdBRL)
	require.ErrorIs(t, err, quote.ErrInvalidAmount)
}

func TestFetchRejectsEmptyPair(t *testing.T) {
	_, err := newTestFetcher("http://127.0.0.1:1", time.Second).Fetch(context.Background(), quote.Pair{Base: "USD"})
	require.ErrorIs(t, err, quote.ErrEmptyCode)
}

func TestKindUnknown(t *testing.T) {
	require.Equal(t, "", Kind(nil))
	require.Equal(t, "unknown", Kind(errors.New("boom")))
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

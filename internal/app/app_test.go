package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fxwatch/internal/config"
	"fxwatch/internal/fetcher"
)

func quoteServer(t *testing.T, bid string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"USDBRL": map[string]string{
				"code":      "USD",
				"codein":    "BRL",
				"bid":       bid,
				"pctChange": "2.50",
				"timestamp": "1705325400",
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func trelloServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "card-1", "url": "https://trello.com/c/card-1"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testApp(providerURL, trelloURL string, creds bool) (*App, *bytes.Buffer) {
	cfg := &config.Config{
		Provider: config.ProviderConfig{BaseURL: providerURL, Base: "USD", Quote: "BRL", RequestTimeout: time.Second},
		Alerting: config.AlertingConfig{Threshold: 5.50},
		Trello:   config.TrelloConfig{BaseURL: trelloURL, Position: "top", RequestTimeout: time.Second},
		Recorder: config.RecorderConfig{Enabled: false, Backend: config.BackendSheets},
		Export:   config.ExportConfig{MaxDataPoints: 100},
	}
	if creds {
		cfg.Trello.APIKey, cfg.Trello.Token, cfg.Trello.ListID = "key", "token", "list"
	}

	var out bytes.Buffer
	a := NewApp(cfg, zerolog.Nop())
	a.Out = &out
	return a, &out
}

func TestRunCreatesCardAboveThreshold(t *testing.T) {
	var calls int32
	provider := quoteServer(t, "5.75")
	trello := trelloServer(t, &calls)
	a, out := testApp(provider.URL, trello.URL, true)

	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Contains(t, out.String(), "fetch: USD/BRL = 5.7500 (2.50%)")
	require.Contains(t, out.String(), "record: error: recorder unavailable")
	require.Contains(t, out.String(), "alert: created https://trello.com/c/card-1")
}

func TestRunBelowThreshold(t *testing.T) {
	var calls int32
	provider := quoteServer(t, "5.10")
	trello := trelloServer(t, &calls)
	a, out := testApp(provider.URL, trello.URL, true)

	require.NoError(t, a.Run(context.Background()))
	require.Zero(t, atomic.LoadInt32(&calls))
	require.Contains(t, out.String(), "alert: below_threshold")
}

func TestRunFetchFailureReturnsError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer provider.Close()
	var calls int32
	trello := trelloServer(t, &calls)
	a, out := testApp(provider.URL, trello.URL, true)

	err := a.Run(context.Background())
	var statusErr *fetcher.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Zero(t, atomic.LoadInt32(&calls))
	require.Contains(t, out.String(), "fetch: failed for USD/BRL")
}

func TestRunSummaryNamesMissingCredentialsFile(t *testing.T) {
	var calls int32
	provider := quoteServer(t, "5.10")
	trello := trelloServer(t, &calls)
	a, out := testApp(provider.URL, trello.URL, true)
	missing := filepath.Join(t.TempDir(), "credentials.json")
	a.Config.Recorder.Enabled = true
	a.Config.Sheets = config.SheetsConfig{CredentialsFile: missing, SpreadsheetID: "sheet-id", RequestTimeout: time.Second}

	require.NoError(t, a.Run(context.Background()))
	require.Contains(t, out.String(), "record: error: recorder unavailable: credentials file")
	require.Contains(t, out.String(), missing)
	require.Contains(t, out.String(), "alert: below_threshold")
}

func TestFetchPrintsQuote(t *testing.T) {
	provider := quoteServer(t, "5.75")
	a, out := testApp(provider.URL, "", false)

	require.NoError(t, a.Fetch(context.Background(), FetchOptions{}))
	require.Equal(t, "USD/BRL: 5.7500 BRL (2.50%) at 2024-01-15 13:30:00 UTC\n", out.String())
}

func TestFetchRejectsEmptyOverride(t *testing.T) {
	a, _ := testApp("http://127.0.0.1:1", "", false)
	a.Config.Provider.Base = ""
	require.Error(t, a.Fetch(context.Background(), FetchOptions{Base: " "}))
}

func TestSimulateAlertWithoutCredentials(t *testing.T) {
	a, out := testApp("", "", false)

	require.NoError(t, a.SimulateAlert(context.Background(), decimal.RequireFromString("5.75"), decimal.RequireFromString("2.5")))
	require.Contains(t, out.String(), "alert: suppressed_missing_credentials")
}

func TestSimulateAlertCreatesCard(t *testing.T) {
	var calls int32
	trello := trelloServer(t, &calls)
	a, out := testApp("", trello.URL, true)

	require.NoError(t, a.SimulateAlert(context.Background(), decimal.RequireFromString("5.75"), decimal.RequireFromString("2.5")))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Contains(t, out.String(), "alert: created")
}

func TestSimulateAlertBelowThreshold(t *testing.T) {
	a, out := testApp("", "", true)

	require.NoError(t, a.SimulateAlert(context.Background(), decimal.RequireFromString("5.50"), decimal.Zero))
	require.Equal(t, "alert: below_threshold (5.50 <= 5.50)\n", out.String())
}

func TestSimulateAlertSubmissionFailure(t *testing.T) {
	trello := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer trello.Close()
	a, _ := testApp("", trello.URL, true)

	require.Error(t, a.SimulateAlert(context.Background(), decimal.RequireFromString("6"), decimal.Zero))
}

func TestSimulateAlertRejectsNonPositiveAmount(t *testing.T) {
	a, _ := testApp("", "", true)
	require.Error(t, a.SimulateAlert(context.Background(), decimal.Zero, decimal.Zero))
}

func TestMigrateRequiresDSN(t *testing.T) {
	a, _ := testApp("", "", false)
	require.ErrorContains(t, a.Migrate(context.Background()), "database.dsn")
}

func TestShowWithoutTable(t *testing.T) {
	a, _ := testApp("", "", false)
	require.ErrorIs(t, a.Show(context.Background(), ShowOptions{Limit: 5}), errNoTable)
}

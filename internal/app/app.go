package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxwatch/internal/alerting"
	"fxwatch/internal/config"
	"fxwatch/internal/fetcher"
	"fxwatch/internal/metrics"
	"fxwatch/internal/quote"
	"fxwatch/internal/recorder"
	"fxwatch/internal/service"
	"fxwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

func (a *App) policy() quote.Policy {
	return quote.NewPolicy(decimal.NewFromFloat(a.Config.Alerting.Threshold))
}

func (a *App) pair() (quote.Pair, error) {
	return quote.NewPair(a.Config.Provider.Base, a.Config.Provider.Quote)
}

func (a *App) newFetcher() fetcher.Fetcher {
	return fetcher.NewAwesomeAPI(fetcher.Options{
		BaseURL:   a.Config.Provider.BaseURL,
		Timeout:   a.Config.Provider.RequestTimeout,
		UserAgent: a.Config.Provider.UserAgent,
	}, a.Logger)
}

func (a *App) credentials() alerting.Credentials {
	return alerting.Credentials{
		APIKey: a.Config.Trello.APIKey,
		Token:  a.Config.Trello.Token,
		ListID: a.Config.Trello.ListID,
	}
}

func (a *App) newAlerter() *alerting.Alerter {
	cfg := a.Config.Trello
	client := alerting.NewTrelloClient(cfg.BaseURL, cfg.RequestTimeout, a.Logger)
	return alerting.NewAlerter(client, a.credentials(), cfg.Position, a.Logger)
}

func (a *App) newReporter() *metrics.Reporter {
	return metrics.NewReporter(metrics.Options{
		PushgatewayURL: a.Config.Metrics.PushgatewayURL,
		Job:            a.Config.Metrics.Job,
		Timeout:        a.Config.Metrics.RequestTimeout,
	}, a.Logger)
}

// openTable returns a nil table when recording is disabled or the selected
// backend has no identifier configured.
func (a *App) openTable(ctx context.Context) (recorder.Table, func(), error) {
	if !a.Config.Recorder.Enabled {
		return nil, nil, nil
	}

	switch a.Config.Recorder.Backend {
	case config.BackendPostgres:
		if a.Config.Database.DSN == "" {
			a.Logger.Warn().Msg("database.dsn not configured; recording disabled")
			return nil, nil, nil
		}
		pool, err := storage.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, nil, err
		}
		table := storage.NewPostgresTable(pool, a.Config.Database.Sheet, a.Config.Database.RequestTimeout, a.Logger)
		return table, table.Close, nil

	default:
		cfg := a.Config.Sheets
		if cfg.SpreadsheetID == "" {
			a.Logger.Warn().Msg("sheets.spreadsheet_id not configured; recording disabled")
			return nil, nil, nil
		}
		svc, err := storage.NewSheetsService(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		table := storage.NewSheetsTable(svc, storage.SheetsOptions{
			SpreadsheetID: cfg.SpreadsheetID,
			Worksheet:     cfg.Worksheet,
			Timeout:       cfg.RequestTimeout,
		}, a.Logger)
		return table, nil, nil
	}
}

// Run executes one fetch, record and alert pass and prints a summary.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pair, err := a.pair()
	if err != nil {
		return err
	}
	policy := a.policy()

	var rec service.QuoteRecorder
	table, closeTable, err := a.openTable(ctx)
	switch {
	case err != nil:
		a.Logger.Error().Err(err).Msg("failed to open tabular store; continuing without recording")
		rec = service.UnavailableRecorder(err)
	case table != nil:
		rec = recorder.New(table, policy, a.Logger)
	}
	if closeTable != nil {
		defer closeTable()
	}

	pipeline := service.New(a.newFetcher(), pair, rec, a.newAlerter(), policy, a.newReporter(), a.Logger)
	report, runErr := pipeline.Run(ctx)
	for _, line := range report.Summary() {
		fmt.Fprintln(a.Out, line)
	}
	return runErr
}

// Fetch prints one quote without recording or alerting.
func (a *App) Fetch(ctx context.Context, opts FetchOptions) error {
	base, quoteCode := opts.Base, opts.Quote
	if base == "" {
		base = a.Config.Provider.Base
	}
	if quoteCode == "" {
		quoteCode = a.Config.Provider.Quote
	}
	pair, err := quote.NewPair(base, quoteCode)
	if err != nil {
		return err
	}

	rec, err := a.newFetcher().Fetch(ctx, pair)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", pair, err)
	}

	fmt.Fprintf(a.Out, "%s: %s %s (%s%%) at %s\n",
		rec.Pair, rec.Amount.StringFixed(4), rec.Pair.Quote, rec.PercentChange.StringFixed(2),
		rec.ObservedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	return nil
}

// Migrate applies the embedded schema migrations to the configured database.
func (a *App) Migrate(ctx context.Context) error {
	if a.Config.Database.DSN == "" {
		return errors.New("database.dsn not configured; nothing to migrate")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	return storage.Migrate(ctx, pool, a.Logger)
}

// FetchOptions select the pair for the fetch command.
type FetchOptions struct {
	Base  string
	Quote string
}

// ExportOptions hold parameters for exporting recorded rows.
type ExportOptions struct {
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

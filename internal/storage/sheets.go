package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw = "RAW"
	insertRows    = "INSERT_ROWS"
)

// SheetsOptions identify the spreadsheet and worksheet to write to.
type SheetsOptions struct {
	SpreadsheetID string
	// Worksheet is the tab title; empty selects the first tab.
	Worksheet string
	Timeout   time.Duration
}

// SheetsTable reads and appends rows of one worksheet in a Google spreadsheet.
type SheetsTable struct {
	svc    *sheets.Service
	opts   SheetsOptions
	logger zerolog.Logger
}

// NewSheetsService authenticates with a service account key file.
func NewSheetsService(ctx context.Context, credentialsFile string, extra ...option.ClientOption) (*sheets.Service, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("credentials file %q: %w", credentialsFile, err)
	}

	opts := append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	}, extra...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// NewSheetsTable wraps an authenticated sheets service.
func NewSheetsTable(svc *sheets.Service, opts SheetsOptions, logger zerolog.Logger) *SheetsTable {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &SheetsTable{
		svc:    svc,
		opts:   opts,
		logger: logger.With().Str("component", "sheets_table").Str("spreadsheet_id", opts.SpreadsheetID).Logger(),
	}
}

// ReadAll returns every populated row of the worksheet.
func (t *SheetsTable) ReadAll(ctx context.Context) ([][]string, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	rng, err := t.worksheetRange(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.svc.Spreadsheets.Values.Get(t.opts.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, wrapSheetsError("read values", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = fmt.Sprint(v)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// AppendRow adds one row after the last populated row.
func (t *SheetsTable) AppendRow(ctx context.Context, cells []string) error {
	if err := t.ready(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	rng, err := t.worksheetRange(ctx)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	_, err = t.svc.Spreadsheets.Values.Append(t.opts.SpreadsheetID, rng, &sheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{values},
	}).ValueInputOption(valueInputRaw).InsertDataOption(insertRows).Context(ctx).Do()
	if err != nil {
		return wrapSheetsError("append values", err)
	}

	t.logger.Debug().Str("range", rng).Int("cells", len(cells)).Msg("row appended")
	return nil
}

func (t *SheetsTable) ready() error {
	if t == nil || t.svc == nil {
		return ErrNotConfigured
	}
	if t.opts.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet id is empty", ErrTableNotFound)
	}
	return nil
}

func (t *SheetsTable) worksheetRange(ctx context.Context) (string, error) {
	if t.opts.Worksheet != "" {
		return quoteSheetTitle(t.opts.Worksheet), nil
	}

	ss, err := t.svc.Spreadsheets.Get(t.opts.SpreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", wrapSheetsError("get spreadsheet", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("%w: spreadsheet has no worksheets", ErrTableNotFound)
	}
	return quoteSheetTitle(ss.Sheets[0].Properties.Title), nil
}

// quoteSheetTitle always quotes: a bare title such as FY2024 reads as a cell reference.
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func wrapSheetsError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %w", op, ErrTableNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

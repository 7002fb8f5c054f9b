package app

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fxwatch/internal/quote"
	"fxwatch/internal/recorder"
)

func sampleRows(n int) []recorder.Row {
	start := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)
	rows := make([]recorder.Row, n)
	for i := range rows {
		amount := decimal.RequireFromString("5.40").Add(decimal.New(int64(i), -2))
		status := quote.StatusNormal
		if amount.GreaterThan(decimal.RequireFromString("5.50")) {
			status = quote.StatusAlert
		}
		rows[i] = recorder.Row{
			ObservedAt:    start.Add(time.Duration(i) * time.Hour),
			Pair:          quote.Pair{Base: "USD", Quote: "BRL"},
			Amount:        amount,
			PercentChange: decimal.New(int64(i), -1),
			Status:        status,
		}
	}
	return rows
}

func TestDownsampleRows(t *testing.T) {
	rows := sampleRows(10)

	require.Len(t, downsampleRows(rows, 0), 10)
	require.Len(t, downsampleRows(rows, 20), 10)

	out := downsampleRows(rows, 4)
	require.Len(t, out, 4)
	require.Equal(t, rows[0], out[0])
	require.Equal(t, rows[9], out[3])

	single := downsampleRows(rows, 1)
	require.Equal(t, []recorder.Row{rows[9]}, single)
}

func TestWriteRowsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rows.csv")
	require.NoError(t, writeRowsCSV(path, sampleRows(3)))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, []string{"observed_at", "pair", "amount", "pct_change", "status"}, records[0])
	require.Equal(t, []string{"2024-01-15T13:00:00Z", "USD/BRL", "5.4", "0", "normal"}, records[1])
}

func TestWriteRowsPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, writeRowsPNG(path, sampleRows(15), decimal.RequireFromString("5.50")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestWriteRowsPNGNeedsTwoRows(t *testing.T) {
	err := writeRowsPNG(filepath.Join(t.TempDir(), "chart.png"), sampleRows(1), decimal.RequireFromString("5.50"))
	require.Error(t, err)
}

func TestWriteRowsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRowsTable(&buf, lastRows(sampleRows(15), 2)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Observed (UTC)")
	require.Contains(t, lines[2], "5.5400")
	require.Contains(t, lines[2], "alert")
}

func TestWriteRowsTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRowsTable(&buf, nil))
	require.Equal(t, "no rows recorded\n", buf.String())
}

func TestExportRequiresOutput(t *testing.T) {
	a, _ := testApp("", "", false)
	require.ErrorContains(t, a.Export(t.Context(), ExportOptions{}), "--csv or --png")
}

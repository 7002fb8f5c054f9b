package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	undefinedTableCode = "42P01"

	listRowsSQL = `SELECT cells
    FROM sheet_rows
    WHERE sheet = $1
    ORDER BY id;`

	appendRowSQL = `INSERT INTO sheet_rows (
        sheet,
        cells
    ) VALUES (
        $1,$2
    );`
)

// PostgresTable stores rows of a named sheet in the sheet_rows table.
type PostgresTable struct {
	pool    *pgxpool.Pool
	sheet   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewPostgresTable wires a pgx pool into a PostgresTable.
func NewPostgresTable(pool *pgxpool.Pool, sheet string, timeout time.Duration, logger zerolog.Logger) *PostgresTable {
	if sheet == "" {
		sheet = "default"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresTable{
		pool:    pool,
		sheet:   sheet,
		timeout: timeout,
		logger:  logger.With().Str("component", "postgres_table").Str("sheet", sheet).Logger(),
	}
}

// Close releases the underlying pool resources.
func (t *PostgresTable) Close() {
	if t == nil || t.pool == nil {
		return
	}
	t.pool.Close()
}

func (t *PostgresTable) getPool() (*pgxpool.Pool, error) {
	if t == nil || t.pool == nil {
		return nil, ErrNotConfigured
	}
	return t.pool, nil
}

// ReadAll lists every row of the sheet in insertion order.
func (t *PostgresTable) ReadAll(ctx context.Context) ([][]string, error) {
	pool, err := t.getPool()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	rows, queryErr := pool.Query(ctx, listRowsSQL, t.sheet)
	if queryErr != nil {
		return nil, wrapPgError("list rows", queryErr)
	}
	defer rows.Close()

	result := make([][]string, 0)
	for rows.Next() {
		var cells []string
		if scanErr := rows.Scan(&cells); scanErr != nil {
			return nil, fmt.Errorf("scan row: %w", scanErr)
		}
		result = append(result, cells)
	}
	if rows.Err() != nil {
		return nil, wrapPgError("list rows", rows.Err())
	}
	return result, nil
}

// AppendRow inserts one row at the end of the sheet.
func (t *PostgresTable) AppendRow(ctx context.Context, cells []string) error {
	pool, err := t.getPool()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, execErr := pool.Exec(ctx, appendRowSQL, t.sheet, cells); execErr != nil {
		return wrapPgError("append row", execErr)
	}
	t.logger.Debug().Int("cells", len(cells)).Msg("row appended")
	return nil
}

func wrapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
		return fmt.Errorf("%s: %w: %w", op, ErrTableNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

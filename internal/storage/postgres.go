package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"ogyscraper/internal/logger"
	"ogyscraper/internal/table"
)

// PostgresWriter persists tables into a PostgreSQL database.
type PostgresWriter struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgresWriter opens a connection and waits for the server to become
// reachable, retrying the ping a few times.
func NewPostgresWriter(dsn string, log *logger.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}

		time.Sleep(2 * time.Second)
	}

	if err != nil {
		db.Close()

		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return &PostgresWriter{db: db, log: log}, nil
}

// WriteTable replaces the named table with the given contents. The schema is
// derived from the table itself, since the wide vote columns differ between
// elections; missing cells become NULL.
func (w *PostgresWriter) WriteTable(ctx context.Context, name string, t *table.Table) error {
	columns := t.Columns()
	kinds := columnKinds(t)

	if _, err := w.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("postgres: drop %s: %w", name, err)
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		typ := kinds[col]
		if typ == kindReal {
			typ = "DOUBLE PRECISION"
		}

		defs[i] = quoteIdent(col) + " " + typ
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := w.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("postgres: create %s: %w", name, err)
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}

	insertHead := fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		quoteIdent(name), strings.Join(quoted, ", "))

	rows := t.Rows()

	// Batch size is bounded by the 65535-parameter protocol limit; the wide
	// results table can carry a few hundred columns.
	batchSize := 50

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		if err := w.insertBatch(ctx, insertHead, columns, rows[start:end]); err != nil {
			return fmt.Errorf("postgres: insert into %s: %w", name, err)
		}
	}

	w.log.Info("postgres table written", "table", name, "rows", t.Len(), "columns", len(columns))

	return nil
}

func (w *PostgresWriter) insertBatch(ctx context.Context, insertHead string, columns []string, batch []table.Row) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*len(columns))

	for idx, row := range batch {
		base := idx * len(columns)
		placeholders := make([]string, len(columns))

		for i, col := range columns {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
			valueArgs = append(valueArgs, row[col]) // nil when the cell is absent
		}

		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
	}

	_, err := w.db.ExecContext(ctx, insertHead+strings.Join(valueStrings, ","), valueArgs...)

	return err
}

// Close closes the connection pool.
func (w *PostgresWriter) Close() error {
	return w.db.Close()
}

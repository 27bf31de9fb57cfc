package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"ogyscraper/internal/logger"
	"ogyscraper/internal/table"
)

// CSVWriter writes each table as {dir}/{name}.csv.
type CSVWriter struct {
	dir string
	log *logger.Logger
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string, log *logger.Logger) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &CSVWriter{dir: dir, log: log}, nil
}

// WriteTable writes one table to {dir}/{name}.csv with a header row. Missing
// cells become empty fields.
func (w *CSVWriter) WriteTable(ctx context.Context, name string, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(w.dir, name+".csv")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	columns := t.Columns()

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header of %s: %w", path, err)
	}

	record := make([]string, len(columns))

	for _, row := range t.Rows() {
		for i, col := range columns {
			record[i] = CellString(row[col])
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row of %s: %w", path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	w.log.Info("csv written", "path", path, "rows", t.Len(), "columns", len(columns))

	return nil
}

// Close is a no-op; each table write opens and closes its own file.
func (w *CSVWriter) Close() error {
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"ogyscraper/internal/logger"
	"ogyscraper/internal/table"
)

// SQLiteWriter persists tables into a single SQLite database file.
type SQLiteWriter struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// NewSQLiteWriter opens (or creates) the database file at path.
func NewSQLiteWriter(path string, log *logger.Logger) (*SQLiteWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}

	// The driver is in-process; a single connection avoids writer contention.
	db.SetMaxOpenConns(1)

	return &SQLiteWriter{db: db, path: path, log: log}, nil
}

// WriteTable replaces the named table with the given contents. Column types
// are inferred from the cell values; missing cells become NULL.
func (w *SQLiteWriter) WriteTable(ctx context.Context, name string, t *table.Table) error {
	columns := t.Columns()
	kinds := columnKinds(t)

	if _, err := w.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("dropping table %s: %w", name, err)
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(col) + " " + kinds[col]
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
	if _, err := w.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction for %s: %w", name, err)
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(columns)), ",")
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(quoted, ", "), placeholders)

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		tx.Rollback()

		return fmt.Errorf("preparing insert for %s: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))

	for _, row := range t.Rows() {
		for i, col := range columns {
			args[i] = row[col] // nil when the cell is absent
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()

			return fmt.Errorf("inserting into %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}

	w.log.Info("sqlite table written", "path", w.path, "table", name, "rows", t.Len(), "columns", len(columns))

	return nil
}

// Close closes the database file.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

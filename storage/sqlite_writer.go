package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"listing-cleaner/models"
)

const (
	sqliteTable     = "listings_clean"
	tagColumnPrefix = "merkmal_"
)

var sqliteScalarTypes = map[string]string{
	models.ColPrice:      "REAL",
	models.ColRooms:      "REAL",
	models.ColLivingArea: "REAL",
	models.ColPlotArea:   "REAL",
}

// SQLiteWriter stores the clean table as one wide SQLite table with an
// INTEGER column per tag. Tag columns are prefixed so they cannot collide
// with scalar or descriptive columns.
type SQLiteWriter struct {
	db   *sql.DB
	path string
}

// NewSQLiteWriter opens (or creates) the database file at path.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create output dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", path, err)
	}
	return &SQLiteWriter{db: db, path: path}, nil
}

// Write replaces the table with the given clean table. The column set
// depends on the run's vocabulary, so the table is recreated each time.
func (w *SQLiteWriter) Write(table *models.CleanTable) error {
	cols := sqliteColumns(table)

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + quoteIdent(sqliteTable)); err != nil {
		return fmt.Errorf("sqlite: drop table: %w", err)
	}
	if _, err := tx.Exec(createTableSQL(table, cols)); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}

	stmt, err := tx.Prepare(insertSQL(cols))
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range table.Rows {
		if _, err := stmt.Exec(sqliteArgs(r)...); err != nil {
			return fmt.Errorf("sqlite: insert %q: %w", r.ID, err)
		}
	}

	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_listings_clean_id ON listings_clean("id")`,
		`CREATE INDEX IF NOT EXISTS idx_listings_clean_plz ON listings_clean("plz")`,
		`CREATE INDEX IF NOT EXISTS idx_listings_clean_preis ON listings_clean("preis")`,
	} {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("sqlite: create index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

// Path returns the database file path.
func (w *SQLiteWriter) Path() string {
	return w.path
}

func sqliteColumns(table *models.CleanTable) []string {
	cols := make([]string, 0, len(models.ScalarColumns)+len(table.Descriptive)+len(table.Vocabulary))
	cols = append(cols, models.ScalarColumns...)
	cols = append(cols, table.Descriptive...)
	for _, tag := range table.Vocabulary {
		cols = append(cols, tagColumnPrefix+tag)
	}
	return uniqueColumns(cols)
}

// uniqueColumns suffixes _2, _3, ... onto names that clash with an earlier
// one once case is folded, since SQLite identifiers are case-insensitive.
func uniqueColumns(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	out := make([]string, len(cols))
	for i, c := range cols {
		name := c
		for n := 2; seen[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", c, n)
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func createTableSQL(table *models.CleanTable, cols []string) string {
	firstTag := len(cols) - len(table.Vocabulary)
	defs := make([]string, 0, len(cols))
	for i, c := range cols {
		t := "TEXT"
		if i >= firstTag {
			t = "INTEGER NOT NULL DEFAULT 0"
		} else if st, ok := sqliteScalarTypes[c]; ok {
			t = st
		}
		defs = append(defs, quoteIdent(c)+" "+t)
	}
	return `CREATE TABLE ` + quoteIdent(sqliteTable) + ` (` + strings.Join(defs, ", ") + `)`
}

func insertSQL(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	return `INSERT INTO ` + quoteIdent(sqliteTable) + ` (` + strings.Join(quoted, ", ") + `) VALUES (` + ph + `)`
}

func sqliteArgs(r *models.Row) []any {
	args := []any{
		r.ID,
		r.TransactionType,
		r.ObjectType,
		nullDate(r.DownloadDate),
		r.SearchLocation,
		r.Price,
		r.Rooms,
		r.LivingArea,
		r.PlotArea,
		r.PostalCode,
		r.Place,
	}
	for _, d := range r.Descriptive {
		args = append(args, d)
	}
	for _, f := range r.Flags {
		if f {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	return args
}

// quoteIdent quotes an SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

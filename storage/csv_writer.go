package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"listing-cleaner/models"
)

// CSVWriter writes the clean table to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically. The header is written
// together with the first table, since the tag columns depend on it.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVWriter{file: f, writer: csv.NewWriter(f)}, nil
}

// Write writes the header and every row of the table.
func (c *CSVWriter) Write(table *models.CleanTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writer.Write(table.Columns()); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range table.Rows {
		if err := c.writer.Write(rowCells(r)); err != nil {
			return fmt.Errorf("csv: write row %q: %w", r.ID, err)
		}
	}

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// Package loader reads scraper export files into raw listing batches.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

// export is the top-level shape of one scraper export file.
type export struct {
	Objects []map[string]any `json:"objects"`
}

// Loader discovers and decodes export files in a data directory.
type Loader struct {
	logger *utils.Logger
}

// New creates a Loader with the given logger.
func New(logger *utils.Logger) *Loader {
	return &Loader{logger: logger}
}

// Discover lists the export files in dir, sorted by name.
func (l *Loader) Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: read data dir %q: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), exportExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every export in dir. A directory without exports is an error.
func (l *Loader) LoadDir(dir string) ([]*models.Batch, error) {
	paths, err := l.Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("loader: %q: %w", dir, models.ErrNoExports)
	}

	batches := make([]*models.Batch, 0, len(paths))
	for _, p := range paths {
		b, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}

	l.logger.Info("[loader] %d json-files have been loaded", len(batches))
	return batches, nil
}

// LoadFile decodes one export file and tags it with its filename metadata.
func (l *Loader) LoadFile(path string) (*models.Batch, error) {
	meta, err := ParseFilename(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %q: %w", path, err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loader: decode %q: %w", path, err)
	}

	l.logger.Debug("[loader] %s: %d records", filepath.Base(path), len(records))
	return &models.Batch{Source: filepath.Base(path), Metadata: meta, Records: records}, nil
}

// Decode reads an export document and resolves every value into a Field.
// Nested objects are flattened into dotted keys ("a.b").
func Decode(r io.Reader) ([]*models.RawListing, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc export
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	records := make([]*models.RawListing, 0, len(doc.Objects))
	for _, obj := range doc.Objects {
		fields := make(map[string]models.Field, len(obj))
		flatten("", obj, fields)
		records = append(records, &models.RawListing{Fields: fields})
	}
	return records, nil
}

func flatten(prefix string, obj map[string]any, out map[string]models.Field) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = fieldFromJSON(v)
	}
}

func fieldFromJSON(v any) models.Field {
	switch t := v.(type) {
	case nil:
		return models.Absent()
	case string:
		return models.Text(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, scalarText(item))
		}
		return models.List(items)
	default:
		return models.Text(scalarText(t))
	}
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(t); err != nil {
			return fmt.Sprint(t)
		}
		return strings.TrimSpace(buf.String())
	}
}

package loader

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

const sampleExport = `{
  "objects": [
    {
      "url": "https://immo.example/expose/a1",
      "preis": "450.000 €",
      "anzahl_raeume": 4,
      "ort": "10115 Berlin",
      "merkmale": null,
      "beschreibung": [],
      "weitere_eigenschaften": ["Neubau", "Keller"],
      "energie": {"klasse": "B", "verbrauch": 72.5}
    }
  ]
}`

func newTestLoader() *Loader {
	return New(utils.NewLoggerTo(io.Discard, io.Discard))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestDecodeResolvesFields(t *testing.T) {
	records, err := Decode(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]

	tests := []struct {
		key      string
		wantKind models.FieldKind
		wantText string
	}{
		{"preis", models.FieldText, "450.000 €"},
		{"anzahl_raeume", models.FieldText, "4"},
		{"merkmale", models.FieldAbsent, ""},
		{"beschreibung", models.FieldList, ""},
		{"weitere_eigenschaften", models.FieldList, "Neubau, Keller"},
		{"energie.klasse", models.FieldText, "B"},
		{"energie.verbrauch", models.FieldText, "72.5"},
		{"fehlt", models.FieldAbsent, ""},
	}
	for _, tt := range tests {
		f := r.Get(tt.key)
		if f.Kind != tt.wantKind || f.String() != tt.wantText {
			t.Errorf("%s: got kind %d text %q; want kind %d text %q", tt.key, f.Kind, f.String(), tt.wantKind, tt.wantText)
		}
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"objects": [`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2021-05-02-hamburg-wohnung-mieten.json", `{"objects": [{"url": "x/1"}, {"url": "x/2"}]}`)
	writeFile(t, dir, "2021-05-01-berlin-haus-kaufen.json", sampleExport)
	writeFile(t, dir, "notes.txt", "ignored")

	batches, err := newTestLoader().LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[0].Metadata.SearchLocation != "berlin" || len(batches[0].Records) != 1 {
		t.Errorf("first batch: %+v", batches[0].Metadata)
	}
	if batches[1].Metadata.TransactionType != "mieten" || len(batches[1].Records) != 2 {
		t.Errorf("second batch: %+v", batches[1].Metadata)
	}
}

func TestLoadDirWithoutExports(t *testing.T) {
	_, err := newTestLoader().LoadDir(t.TempDir())
	if !errors.Is(err, models.ErrNoExports) {
		t.Errorf("expected ErrNoExports, got %v", err)
	}
}

func TestLoadFileBadName(t *testing.T) {
	p := writeFile(t, t.TempDir(), "export.json", sampleExport)
	if _, err := newTestLoader().LoadFile(p); !errors.Is(err, models.ErrBadFilename) {
		t.Errorf("expected ErrBadFilename, got %v", err)
	}
}

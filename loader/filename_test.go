package loader

import (
	"errors"
	"testing"

	"listing-cleaner/models"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name string
		want models.Metadata
	}{
		{
			"2021-05-01-berlin-haus-kaufen.json",
			models.Metadata{TransactionType: "kaufen", ObjectType: "haus", DownloadDate: "2021-05-01", SearchLocation: "berlin"},
		},
		{
			"data/2021-06-12-frankfurt-am-main-wohnung-mieten.json",
			models.Metadata{TransactionType: "mieten", ObjectType: "wohnung", DownloadDate: "2021-06-12", SearchLocation: "frankfurt-am-main"},
		},
	}

	for _, tt := range tests {
		got, err := ParseFilename(tt.name)
		if err != nil {
			t.Errorf("ParseFilename(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilename(%q) = %+v; want %+v", tt.name, got, tt.want)
		}
	}
}

func TestParseFilenameRejects(t *testing.T) {
	for _, name := range []string{"export.json", "2021-05-01-haus-kaufen.json", "2021-05-01-berlin-haus-kaufen.csv"} {
		if _, err := ParseFilename(name); !errors.Is(err, models.ErrBadFilename) {
			t.Errorf("ParseFilename(%q): expected ErrBadFilename, got %v", name, err)
		}
	}
}

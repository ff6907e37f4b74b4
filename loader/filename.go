package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"listing-cleaner/models"
)

const exportExt = ".json"

// ParseFilename reads the run metadata from an export filename of the form
//
//	<yyyy>-<mm>-<dd>-<search-location...>-<object-type>-<transaction-type>.json
//
// The search location may itself contain dashes.
func ParseFilename(name string) (models.Metadata, error) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, exportExt) {
		return models.Metadata{}, fmt.Errorf("%q: %w", base, models.ErrBadFilename)
	}
	parts := strings.Split(strings.TrimSuffix(base, exportExt), "-")
	if len(parts) < 6 {
		return models.Metadata{}, fmt.Errorf("%q: %w", base, models.ErrBadFilename)
	}

	n := len(parts)
	return models.Metadata{
		TransactionType: parts[n-1],
		ObjectType:      parts[n-2],
		DownloadDate:    strings.Join(parts[:3], "-"),
		SearchLocation:  strings.Join(parts[3:n-2], "-"),
	}, nil
}

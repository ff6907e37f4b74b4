package services

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"listing-cleaner/models"
)

const (
	keySep     = "\x1f"
	missingKey = "\x00"
)

// Dedup removes rows equal to an earlier row in every column, tag flags
// included. The row id is the table key and takes no part in the
// comparison. Missing values compare equal to each other. It returns the
// number of rows removed.
func Dedup(t *models.CleanTable) int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		k := rowKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, r)
	}
	removed := len(t.Rows) - len(kept)
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return removed
}

func rowKey(r *models.Row) string {
	var b strings.Builder
	write := func(s string) {
		b.WriteString(s)
		b.WriteString(keySep)
	}

	write(r.TransactionType)
	write(r.ObjectType)
	write(timeKey(r.DownloadDate))
	write(r.SearchLocation)
	write(floatKey(r.Price))
	write(floatKey(r.Rooms))
	write(floatKey(r.LivingArea))
	write(floatKey(r.PlotArea))
	write(r.PostalCode)
	write(r.Place)
	for _, d := range r.Descriptive {
		write(d)
	}
	for _, f := range r.Flags {
		if f {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func floatKey(v sql.NullFloat64) string {
	if !v.Valid {
		return missingKey
	}
	return strconv.FormatFloat(v.Float64, 'g', -1, 64)
}

func timeKey(t time.Time) string {
	if t.IsZero() {
		return missingKey
	}
	return t.Format(time.RFC3339Nano)
}

package storage

import (
	"database/sql"
	"strconv"
	"time"

	"listing-cleaner/models"
)

const dateLayout = "2006-01-02"

// rowCells renders a row as text in CleanTable.Columns() order. Missing
// numbers and dates are empty strings, tag flags are "0" or "1".
func rowCells(r *models.Row) []string {
	cells := make([]string, 0, len(models.ScalarColumns)+len(r.Descriptive)+len(r.Flags))
	cells = append(cells,
		r.ID,
		r.TransactionType,
		r.ObjectType,
		dateCell(r.DownloadDate),
		r.SearchLocation,
		floatCell(r.Price),
		floatCell(r.Rooms),
		floatCell(r.LivingArea),
		floatCell(r.PlotArea),
		r.PostalCode,
		r.Place,
	)
	cells = append(cells, r.Descriptive...)
	for _, f := range r.Flags {
		if f {
			cells = append(cells, "1")
		} else {
			cells = append(cells, "0")
		}
	}
	return cells
}

func floatCell(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// nullDate maps the zero time to NULL for SQL backends.
func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

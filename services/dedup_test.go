package services

import (
	"database/sql"
	"testing"
	"time"

	"listing-cleaner/models"
)

func row(id string, price float64, flags ...bool) *models.Row {
	return &models.Row{
		ID:           id,
		DownloadDate: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		Price:        sql.NullFloat64{Float64: price, Valid: true},
		PostalCode:   "12345",
		Descriptive:  []string{"Haus am See"},
		Flags:        flags,
	}
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	table := &models.CleanTable{Rows: []*models.Row{
		row("a", 100, true, false),
		row("b", 200, true, false),
		row("c", 100, true, false),
	}}

	removed := Dedup(table)
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}
	if len(table.Rows) != 2 || table.Rows[0].ID != "a" || table.Rows[1].ID != "b" {
		t.Errorf("unexpected rows after dedup")
	}
}

func TestDedupComparesTagFlags(t *testing.T) {
	table := &models.CleanTable{Rows: []*models.Row{
		row("a", 100, true, false),
		row("b", 100, false, true),
	}}

	if removed := Dedup(table); removed != 0 {
		t.Errorf("rows differing only in tags must be kept, removed %d", removed)
	}
}

func TestDedupMissingValuesAreEqual(t *testing.T) {
	first := row("a", 0)
	first.Price = sql.NullFloat64{}
	second := row("b", 0)
	second.Price = sql.NullFloat64{}
	zero := row("c", 0)

	table := &models.CleanTable{Rows: []*models.Row{first, second, zero}}
	if removed := Dedup(table); removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}
	if table.Rows[1].ID != "c" {
		t.Error("a missing price must not equal a zero price")
	}
}

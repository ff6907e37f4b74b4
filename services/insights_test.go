package services

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	"listing-cleaner/models"
)

func price(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func sampleTable() *models.CleanTable {
	return &models.CleanTable{
		Vocabulary: []string{"Balkon", "Garten", NoTagsSentinel},
		Rows: []*models.Row{
			{ID: "1", ObjectType: "haus", TransactionType: "kaufen", Price: price(200000), LivingArea: price(100), PostalCode: "10115", Flags: []bool{true, true, false}},
			{ID: "2", ObjectType: "haus", TransactionType: "kaufen", Price: price(500000), LivingArea: price(125), PostalCode: "10115", Flags: []bool{false, true, false}},
			{ID: "3", ObjectType: "wohnung", TransactionType: "mieten", Price: price(800), PostalCode: "20095", Flags: []bool{false, false, true}},
			{ID: "4", ObjectType: "wohnung", TransactionType: "kaufen", PostalCode: "20095", Flags: []bool{false, true, false}},
		},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleTable())
	if r.TotalListings != 4 {
		t.Errorf("TotalListings: got %d, want 4", r.TotalListings)
	}
	if r.PricedListings != 3 {
		t.Errorf("PricedListings: got %d, want 3", r.PricedListings)
	}
	if r.ListingsByType["haus kaufen"] != 2 {
		t.Errorf("haus kaufen: got %d, want 2", r.ListingsByType["haus kaufen"])
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleTable())
	if r.AveragePrice != 233600 {
		t.Errorf("AveragePrice: got %.2f, want 233600", r.AveragePrice)
	}
	if r.MinPrice != 800 {
		t.Errorf("MinPrice: got %.2f, want 800", r.MinPrice)
	}
	if r.MaxPrice != 500000 {
		t.Errorf("MaxPrice: got %.2f, want 500000", r.MaxPrice)
	}
	// (2000 + 4000) / 2
	if r.AveragePricePerSqm != 3000 {
		t.Errorf("AveragePricePerSqm: got %.2f, want 3000", r.AveragePricePerSqm)
	}
}

func TestInsightMostExpensive(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleTable())
	if r.MostExpensive == nil {
		t.Fatal("MostExpensive should not be nil")
	}
	if r.MostExpensive.ID != "2" {
		t.Errorf("MostExpensive: got %q, want %q", r.MostExpensive.ID, "2")
	}
}

func TestInsightTopTags(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleTable())
	if len(r.TopTags) != 2 {
		t.Fatalf("TopTags len: got %d, want 2 (sentinel excluded)", len(r.TopTags))
	}
	if r.TopTags[0].Tag != "Garten" || r.TopTags[0].Count != 3 {
		t.Errorf("TopTags[0]: got %+v, want Garten x3", r.TopTags[0])
	}
}

func TestInsightPostalCodeGrouping(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleTable())
	if r.ListingsByPostalCode["10115"] != 2 {
		t.Errorf("10115 count: got %d, want 2", r.ListingsByPostalCode["10115"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleTable()))

	out := buf.String()
	for _, want := range []string{"LISTING INSIGHTS", "Garten", "10115"} {
		if !strings.Contains(out, want) {
			t.Errorf("printed report is missing %q", want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		count, max, want int
	}{
		{0, 10, 0},
		{3, 10, 3},
		{40, 40, 40},
		{5000, 5000, maxBarWidth},
		{2500, 5000, maxBarWidth / 2},
		{1, 5000, 1},
	}
	for _, tt := range tests {
		if got := barWidth(tt.count, tt.max); got != tt.want {
			t.Errorf("barWidth(%d, %d) = %d; want %d", tt.count, tt.max, got, tt.want)
		}
	}
}

func TestInsightPrintCapsBars(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := &models.InsightReport{ListingsByPostalCode: map[string]int{"10115": 5000, "20095": 10}}
	var buf bytes.Buffer
	svc.Print(&buf, r)

	for _, line := range strings.Split(buf.String(), "\n") {
		if n := strings.Count(line, "█"); n > maxBarWidth {
			t.Errorf("bar of %d cells exceeds %d: %q", n, maxBarWidth, line)
		}
	}
	if !strings.Contains(buf.String(), "(5000)") {
		t.Error("count should still be printed in full")
	}
}

package services

import (
	"errors"
	"io"
	"testing"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, io.Discard) }

func priced(id string, f models.Field) *models.Listing {
	return &models.Listing{ID: id, Price: models.Numeric{Raw: f}}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text      string
		want      float64
		wantValid bool
		wantErr   bool
	}{
		{"1234.5", 1234.5, true, false},
		{"450000", 450000, true, false},
		{"-3", -3, true, false},
		{"", 0, false, false},
		{"abc", 0, false, true},
		{"inf", 0, false, true},
		{"1,5", 0, false, true},
	}

	for _, tt := range tests {
		got, valid, err := ParseNumber(tt.text)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNumber(%q) error = %v; wantErr %v", tt.text, err, tt.wantErr)
			continue
		}
		if got != tt.want || valid != tt.wantValid {
			t.Errorf("ParseNumber(%q) = (%v, %v); want (%v, %v)", tt.text, got, valid, tt.want, tt.wantValid)
		}
	}
}

func TestParsePrice(t *testing.T) {
	p := NewNumericParser(newTestLogger())
	listings := []*models.Listing{
		priced("a", models.Text("450000")),
		priced("b", models.Text("auf Anfrage\u00a0")),
		priced("c", models.Text("1234,5")),
		priced("d", models.Text("")),
		priced("e", models.Text("auf Anfrage")),
	}

	onRequest, err := p.ParsePrice(listings)
	if err != nil {
		t.Fatalf("ParsePrice: %v", err)
	}
	if onRequest != 2 {
		t.Errorf("onRequest: got %d, want 2", onRequest)
	}

	tests := []struct {
		want  float64
		valid bool
	}{
		{450000, true},
		{0, false},
		{1234.5, true},
		{0, false},
		{0, false},
	}
	for i, tt := range tests {
		n := listings[i].Price
		if n.Value != tt.want || n.Valid != tt.valid || !n.Parsed {
			t.Errorf("listing %s: got %+v; want value %v valid %v", listings[i].ID, n, tt.want, tt.valid)
		}
	}
}

func TestParsePriceIdempotent(t *testing.T) {
	p := NewNumericParser(newTestLogger())
	listings := []*models.Listing{
		priced("a", models.Text("1234,5")),
		priced("b", models.Text("auf Anfrage\u00a0")),
	}

	if _, err := p.ParsePrice(listings); err != nil {
		t.Fatalf("first ParsePrice: %v", err)
	}
	type snapshot struct {
		value         float64
		valid, parsed bool
	}
	first := []snapshot{
		{listings[0].Price.Value, listings[0].Price.Valid, listings[0].Price.Parsed},
		{listings[1].Price.Value, listings[1].Price.Valid, listings[1].Price.Parsed},
	}

	onRequest, err := p.ParsePrice(listings)
	if err != nil {
		t.Fatalf("second ParsePrice: %v", err)
	}
	if onRequest != 0 {
		t.Errorf("second call counted %d on-request prices; want 0", onRequest)
	}
	for i, l := range listings {
		got := snapshot{l.Price.Value, l.Price.Valid, l.Price.Parsed}
		if got != first[i] {
			t.Errorf("listing %d changed on second call: %+v -> %+v", i, first[i], got)
		}
	}
}

func TestParsePriceUnparseable(t *testing.T) {
	p := NewNumericParser(newTestLogger())
	listings := []*models.Listing{
		priced("ok", models.Text("100")),
		priced("bad", models.Text("ca. 300")),
	}

	_, err := p.ParsePrice(listings)
	if !errors.Is(err, models.ErrUnparseableNumeric) {
		t.Fatalf("expected ErrUnparseableNumeric, got %v", err)
	}
	var pe *models.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Column != models.ColPrice || pe.ListingID != "bad" || pe.Value != "ca. 300" {
		t.Errorf("unexpected parse error details: %+v", pe)
	}
}

func TestParseMeasures(t *testing.T) {
	p := NewNumericParser(newTestLogger())
	l := &models.Listing{
		ID:         "x",
		Rooms:      models.Numeric{Raw: models.Text("3,5")},
		LivingArea: models.Numeric{Raw: models.Text("1200,75")},
		PlotArea:   models.Numeric{Raw: models.Absent()},
	}

	if err := p.ParseMeasures([]*models.Listing{l}); err != nil {
		t.Fatalf("ParseMeasures: %v", err)
	}
	if !l.Rooms.Valid || l.Rooms.Value != 3.5 {
		t.Errorf("rooms: got %+v, want 3.5", l.Rooms)
	}
	if !l.LivingArea.Valid || l.LivingArea.Value != 1200.75 {
		t.Errorf("living area: got %+v, want 1200.75", l.LivingArea)
	}
	if l.PlotArea.Valid || !l.PlotArea.Parsed {
		t.Errorf("plot area: got %+v, want parsed missing value", l.PlotArea)
	}

	// second run keeps the values
	if err := p.ParseMeasures([]*models.Listing{l}); err != nil {
		t.Fatalf("second ParseMeasures: %v", err)
	}
	if l.Rooms.Value != 3.5 {
		t.Errorf("rooms changed on second call: %+v", l.Rooms)
	}
}

func TestParseMeasuresUnparseable(t *testing.T) {
	p := NewNumericParser(newTestLogger())
	l := &models.Listing{ID: "x", Rooms: models.Numeric{Raw: models.Text("drei")}}

	err := p.ParseMeasures([]*models.Listing{l})
	var pe *models.ParseError
	if !errors.As(err, &pe) || pe.Column != models.ColRooms {
		t.Errorf("expected rooms parse error, got %v", err)
	}
}

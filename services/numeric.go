package services

import (
	"regexp"
	"strconv"
	"strings"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

var (
	// priceOnRequestRegexp matches the "auf Anfrage" (price on request)
	// placeholder, including the no-break space the exports leave behind.
	priceOnRequestRegexp = regexp.MustCompile(`auf Anfrage\x{00A0}?`)
	// numberRegexp accepts plain decimal notation only, so words like "inf"
	// or "NaN" are reported instead of parsed.
	numberRegexp = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)
)

// NumericParser converts normalized text columns into float64 values.
type NumericParser struct {
	logger *utils.Logger
}

// NewNumericParser creates a NumericParser with the given logger.
func NewNumericParser(logger *utils.Logger) *NumericParser {
	return &NumericParser{logger: logger}
}

// ParsePrice converts the price column. "auf Anfrage" becomes a missing
// value. It returns how many listings had the price-on-request placeholder.
// Calling it on an already converted column is a no-op.
func (p *NumericParser) ParsePrice(listings []*models.Listing) (int, error) {
	get := func(l *models.Listing) *models.Numeric { return &l.Price }
	if columnParsed(listings, get) {
		p.logger.Debug("[numeric] %s is already numeric", models.ColPrice)
		return 0, nil
	}

	onRequest := 0
	err := parseColumn(listings, models.ColPrice, get, func(s string) string {
		if priceOnRequestRegexp.MatchString(s) {
			onRequest++
			s = priceOnRequestRegexp.ReplaceAllString(s, "")
		}
		return ReplaceDecimalComma(strings.TrimSpace(s))
	})
	if err != nil {
		return 0, err
	}

	p.logger.Info("[numeric] %s converted to float (%d on request)", models.ColPrice, onRequest)
	return onRequest, nil
}

// ParseMeasures converts room count, living area and plot area.
func (p *NumericParser) ParseMeasures(listings []*models.Listing) error {
	columns := []struct {
		name string
		get  func(*models.Listing) *models.Numeric
	}{
		{models.ColRooms, func(l *models.Listing) *models.Numeric { return &l.Rooms }},
		{models.ColLivingArea, func(l *models.Listing) *models.Numeric { return &l.LivingArea }},
		{models.ColPlotArea, func(l *models.Listing) *models.Numeric { return &l.PlotArea }},
	}

	converted := make([]string, 0, len(columns))
	for _, c := range columns {
		if columnParsed(listings, c.get) {
			p.logger.Debug("[numeric] %s is already numeric", c.name)
			continue
		}
		err := parseColumn(listings, c.name, c.get, func(s string) string {
			return ReplaceDecimalComma(strings.TrimSpace(s))
		})
		if err != nil {
			return err
		}
		converted = append(converted, c.name)
	}

	if len(converted) > 0 {
		p.logger.Info("[numeric] numerical columns %s cleaned", strings.Join(converted, ", "))
	}
	return nil
}

// ParseNumber parses normalized numeric text. Empty text is a missing value.
func ParseNumber(text string) (value float64, valid bool, err error) {
	if text == "" {
		return 0, false, nil
	}
	if !numberRegexp.MatchString(text) {
		return 0, false, models.ErrUnparseableNumeric
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false, models.ErrUnparseableNumeric
	}
	return v, true, nil
}

func columnParsed(listings []*models.Listing, get func(*models.Listing) *models.Numeric) bool {
	for _, l := range listings {
		if !get(l).Parsed {
			return false
		}
	}
	return true
}

func parseColumn(
	listings []*models.Listing,
	column string,
	get func(*models.Listing) *models.Numeric,
	prepare func(string) string,
) error {
	for _, l := range listings {
		n := get(l)
		if n.Parsed {
			continue
		}
		text := prepare(n.Raw.String())
		v, valid, err := ParseNumber(text)
		if err != nil {
			return &models.ParseError{Column: column, ListingID: l.ID, Value: n.Raw.String(), Err: err}
		}
		n.Value, n.Valid, n.Parsed = v, valid, true
	}
	return nil
}

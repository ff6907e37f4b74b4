package services

import (
	"regexp"
	"time"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

const (
	downloadDateLayout = "2006-01-02"
	rawKeyPrefix       = "raw_"
)

// idTokenRegexp matches word tokens; the last one in a listing URL is its id.
var idTokenRegexp = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Cleaner runs the total (never failing) stages of the pipeline: building
// typed listings, basic normalization, location split, the required-field
// filter and flattening of descriptive fields.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Build turns loaded batches into typed listings and assigns every listing
// its id from the URL.
func (c *Cleaner) Build(batches []*models.Batch) []*models.Listing {
	var result []*models.Listing
	for _, b := range batches {
		for _, r := range b.Records {
			result = append(result, fromRaw(r, b.Metadata))
		}
	}
	c.logger.Debug("[cleaner] Built %d listings from %d batches", len(result), len(batches))
	return result
}

// Normalize replaces empty lists with empty text and strips unit signs and
// thousand separators from price, living area and plot area.
func (c *Cleaner) Normalize(listings []*models.Listing) {
	for _, l := range listings {
		for _, n := range []*models.Numeric{&l.Price, &l.LivingArea, &l.PlotArea} {
			n.Raw = EmptyToString(n.Raw)
			if n.Raw.Kind == models.FieldText {
				n.Raw.Text = NormalizeMeasure(n.Raw.Text)
			}
		}
		l.Rooms.Raw = EmptyToString(l.Rooms.Raw)
		l.Location = EmptyToString(l.Location)
		for k, f := range l.Descriptive {
			l.Descriptive[k] = EmptyToString(f)
		}
	}
}

// SplitLocations derives postal code and place name from the combined
// location field, which is dropped afterwards.
func (c *Cleaner) SplitLocations(listings []*models.Listing) {
	for _, l := range listings {
		l.PostalCode, l.Place = SplitLocation(l.Location.String())
		l.Location = models.Absent()
	}
}

// FilterRequired keeps listings that have a price and a postal code and
// returns how many were dropped.
func (c *Cleaner) FilterRequired(listings []*models.Listing) ([]*models.Listing, int) {
	kept := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if !HasRequiredFields(l) {
			c.logger.Debug("[cleaner] Dropping listing %q without price or postal code", l.ID)
			continue
		}
		kept = append(kept, l)
	}

	dropped := len(listings) - len(kept)
	c.logger.Info("[cleaner] %d rows without price and zip data were deleted", dropped)
	return kept, dropped
}

// HasRequiredFields reports whether a listing carries price text and a postal code.
func HasRequiredFields(l *models.Listing) bool {
	return !l.Price.Raw.IsAbsent() && l.Price.Raw.String() != "" && l.PostalCode != ""
}

// FlattenDescriptive joins list-valued descriptive fields into one string.
func (c *Cleaner) FlattenDescriptive(listings []*models.Listing) {
	for _, l := range listings {
		for k, f := range l.Descriptive {
			if f.Kind == models.FieldList {
				l.Descriptive[k] = models.Text(f.String())
			}
		}
	}
}

// ParseDownloadDates converts the filename date into a time. Listings with
// an unreadable date keep the zero time and are logged.
func (c *Cleaner) ParseDownloadDates(listings []*models.Listing) {
	bad := 0
	for _, l := range listings {
		t, err := time.Parse(downloadDateLayout, l.Metadata.DownloadDate)
		if err != nil {
			bad++
			continue
		}
		l.DownloadedAt = t
	}
	if bad > 0 {
		c.logger.Warn("[cleaner] %d listings have an unreadable download date", bad)
	}
}

// ListingID returns the last word token of a listing URL.
func ListingID(url string) string {
	tokens := idTokenRegexp.FindAllString(url, -1)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func fromRaw(r *models.RawListing, meta models.Metadata) *models.Listing {
	l := &models.Listing{
		Price:       models.Numeric{Raw: r.Get(models.KeyPrice)},
		Rooms:       models.Numeric{Raw: r.Get(models.KeyRooms)},
		LivingArea:  models.Numeric{Raw: r.Get(models.KeyLivingArea)},
		PlotArea:    models.Numeric{Raw: r.Get(models.KeyPlotArea)},
		Location:    r.Get(models.KeyLocation),
		Tags:        tagField(r.Get(models.KeyTags)),
		Descriptive: make(map[string]models.Field),
		Metadata:    meta,
	}
	l.URL = r.Get(models.KeyURL).String()
	l.ID = ListingID(l.URL)

	for k, f := range r.Fields {
		switch k {
		case models.KeyPrice, models.KeyRooms, models.KeyLivingArea, models.KeyPlotArea,
			models.KeyLocation, models.KeyTags:
			continue
		}
		l.Descriptive[descriptiveKey(k)] = f
	}
	return l
}

// descriptiveKey prefixes export keys that would shadow a fixed table column.
func descriptiveKey(k string) string {
	for _, col := range models.ScalarColumns {
		if k == col {
			return rawKeyPrefix + k
		}
	}
	return k
}

func tagField(f models.Field) models.TagField {
	if f.IsAbsent() {
		return models.TagField{Kind: models.TagsAbsent}
	}
	return models.TagField{Kind: models.TagsText, Text: EmptyToString(f).String()}
}

package models

import "time"

// Export field names as they appear in the scraper's JSON objects.
const (
	KeyPrice      = "preis"
	KeyLivingArea = "wohnflaeche"
	KeyPlotArea   = "grundstuecksflaeche"
	KeyRooms      = "anzahl_raeume"
	KeyLocation   = "ort"
	KeyTags       = "merkmale"
	KeyURL        = "url"
)

// Metadata is what the export filename tells about a scrape run.
type Metadata struct {
	TransactionType string
	ObjectType      string
	DownloadDate    string
	SearchLocation  string
}

// Batch is the content of one export file.
type Batch struct {
	Source   string
	Metadata Metadata
	Records  []*RawListing
}

// RawListing holds one export object exactly as loaded, keyed by field name.
type RawListing struct {
	Fields map[string]Field
}

// Get returns the named field, or an absent one.
func (r *RawListing) Get(key string) Field {
	if f, ok := r.Fields[key]; ok {
		return f
	}
	return Absent()
}

// Numeric is a numeric column value on its way from text to float64.
// Valid is false when the value is missing after parsing.
type Numeric struct {
	Raw    Field
	Value  float64
	Valid  bool
	Parsed bool
}

// TagKind distinguishes the states of a tag list field.
type TagKind int

const (
	TagsAbsent TagKind = iota
	TagsText
	TagsSequence
)

// TagField is the per-listing tag list ("Merkmale").
type TagField struct {
	Kind TagKind
	Text string
	Tags []string
}

// Listing is the typed working record that flows through the pipeline.
// Fields not touched by the pipeline travel in Descriptive.
type Listing struct {
	ID  string
	URL string

	Price      Numeric
	Rooms      Numeric
	LivingArea Numeric
	PlotArea   Numeric

	Location   Field
	PostalCode string
	Place      string

	Tags  TagField
	Flags []bool

	Descriptive map[string]Field

	Metadata     Metadata
	DownloadedAt time.Time
}

// InsightReport holds the computed analytics over the clean table.
type InsightReport struct {
	TotalListings        int
	ListingsByType       map[string]int
	PricedListings       int
	AveragePrice         float64
	MinPrice             float64
	MaxPrice             float64
	AveragePricePerSqm   float64
	MostExpensive        *Row
	ListingsByPostalCode map[string]int
	TopTags              []TagCount
}

// TagCount is how many listings carry a tag.
type TagCount struct {
	Tag   string
	Count int
}

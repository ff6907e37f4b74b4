package models

import (
	"database/sql"
	"time"
)

// Fixed column names of the clean table, in output order.
const (
	ColID              = "id"
	ColTransactionType = "transaktionsArt"
	ColObjectType      = "objektArt"
	ColDownloadDate    = "datumDownload"
	ColSearchLocation  = "suchOrt"
	ColPrice           = "preis"
	ColRooms           = "anzahl_raeume"
	ColLivingArea      = "wohnflaeche"
	ColPlotArea        = "grundstuecksflaeche"
	ColPostalCode      = "plz"
	ColPlace           = "ortsname"
)

// ScalarColumns lists the fixed columns every clean table starts with.
var ScalarColumns = []string{
	ColID,
	ColTransactionType,
	ColObjectType,
	ColDownloadDate,
	ColSearchLocation,
	ColPrice,
	ColRooms,
	ColLivingArea,
	ColPlotArea,
	ColPostalCode,
	ColPlace,
}

// Row is one surviving listing in the clean table. Descriptive is aligned
// with CleanTable.Descriptive and Flags with CleanTable.Vocabulary.
type Row struct {
	ID              string
	TransactionType string
	ObjectType      string
	DownloadDate    time.Time
	SearchLocation  string

	Price      sql.NullFloat64
	Rooms      sql.NullFloat64
	LivingArea sql.NullFloat64
	PlotArea   sql.NullFloat64

	PostalCode string
	Place      string

	Descriptive []string
	Flags       []bool
}

// CleanTable is the output of one pipeline run.
type CleanTable struct {
	Descriptive []string
	Vocabulary  []string
	Rows        []*Row
}

// Columns returns the full header: scalar, descriptive, then one column per tag.
func (t *CleanTable) Columns() []string {
	cols := make([]string, 0, len(ScalarColumns)+len(t.Descriptive)+len(t.Vocabulary))
	cols = append(cols, ScalarColumns...)
	cols = append(cols, t.Descriptive...)
	cols = append(cols, t.Vocabulary...)
	return cols
}

// RunReport summarises what a pipeline run did to the batch.
type RunReport struct {
	Loaded            int
	DroppedIncomplete int
	PriceOnRequest    int
	Duplicates        int
	VocabularySize    int
	Rows              int
}

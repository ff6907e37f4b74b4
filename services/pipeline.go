package services

import (
	"database/sql"
	"fmt"
	"sort"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

// Pipeline composes the cleaning stages in their fixed order.
type Pipeline struct {
	logger  *utils.Logger
	cleaner *Cleaner
	tags    *TagEncoder
	numeric *NumericParser
}

// NewPipeline creates a Pipeline whose stages share the given logger.
func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{
		logger:  logger,
		cleaner: NewCleaner(logger),
		tags:    NewTagEncoder(logger),
		numeric: NewNumericParser(logger),
	}
}

// Run cleans the loaded batches into one table. It fails only on numeric
// text that cannot be parsed or on a tag encoding error; the whole run is
// aborted in both cases.
func (p *Pipeline) Run(batches []*models.Batch) (*models.CleanTable, *models.RunReport, error) {
	report := &models.RunReport{}

	listings := p.cleaner.Build(batches)
	report.Loaded = len(listings)

	p.cleaner.Normalize(listings)
	p.cleaner.SplitLocations(listings)
	listings, report.DroppedIncomplete = p.cleaner.FilterRequired(listings)

	vocab, err := p.tags.EncodeBatch(listings)
	if err != nil {
		return nil, nil, fmt.Errorf("encode tags: %w", err)
	}
	report.VocabularySize = vocab.Len()

	p.cleaner.FlattenDescriptive(listings)

	report.PriceOnRequest, err = p.numeric.ParsePrice(listings)
	if err != nil {
		return nil, nil, fmt.Errorf("parse price: %w", err)
	}
	p.cleaner.ParseDownloadDates(listings)
	if err := p.numeric.ParseMeasures(listings); err != nil {
		return nil, nil, fmt.Errorf("parse measures: %w", err)
	}

	table := BuildTable(listings, vocab)
	report.Duplicates = Dedup(table)
	p.logger.Info("[pipeline] %d duplicate rows removed", report.Duplicates)
	report.Rows = len(table.Rows)

	p.logger.Info("[pipeline] Cleaned %d → %d listings (%d columns)",
		report.Loaded, report.Rows, len(table.Columns()))
	return table, report, nil
}

// BuildTable assembles the clean table from encoded, parsed listings.
// Descriptive columns are the sorted union of the listings' descriptive keys.
func BuildTable(listings []*models.Listing, vocab Vocabulary) *models.CleanTable {
	descriptive := descriptiveColumns(listings)
	table := &models.CleanTable{
		Descriptive: descriptive,
		Vocabulary:  vocab.Terms,
		Rows:        make([]*models.Row, 0, len(listings)),
	}

	for _, l := range listings {
		row := &models.Row{
			ID:              l.ID,
			TransactionType: l.Metadata.TransactionType,
			ObjectType:      l.Metadata.ObjectType,
			DownloadDate:    l.DownloadedAt,
			SearchLocation:  l.Metadata.SearchLocation,
			Price:           nullFloat(l.Price),
			Rooms:           nullFloat(l.Rooms),
			LivingArea:      nullFloat(l.LivingArea),
			PlotArea:        nullFloat(l.PlotArea),
			PostalCode:      l.PostalCode,
			Place:           l.Place,
			Descriptive:     make([]string, len(descriptive)),
			Flags:           l.Flags,
		}
		for i, col := range descriptive {
			row.Descriptive[i] = l.Descriptive[col].String()
		}
		if row.Flags == nil {
			row.Flags = make([]bool, vocab.Len())
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func descriptiveColumns(listings []*models.Listing) []string {
	set := make(map[string]struct{})
	for _, l := range listings {
		for k := range l.Descriptive {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func nullFloat(n models.Numeric) sql.NullFloat64 {
	return sql.NullFloat64{Float64: n.Value, Valid: n.Valid}
}

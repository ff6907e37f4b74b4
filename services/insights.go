package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

const (
	topTagCount = 5
	maxBarWidth = 40
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(t *models.CleanTable) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByType:       make(map[string]int),
		ListingsByPostalCode: make(map[string]int),
	}

	if t == nil || len(t.Rows) == 0 {
		return report
	}

	report.TotalListings = len(t.Rows)

	var total, sqmTotal float64
	sqmCount := 0
	tagCounts := make([]int, len(t.Vocabulary))

	for _, r := range t.Rows {
		kind := strings.TrimSpace(r.ObjectType + " " + r.TransactionType)
		report.ListingsByType[kind]++
		if r.PostalCode != "" {
			report.ListingsByPostalCode[r.PostalCode]++
		}
		for i, f := range r.Flags {
			if f && i < len(tagCounts) {
				tagCounts[i]++
			}
		}

		if !r.Price.Valid || r.Price.Float64 <= 0 {
			continue
		}
		p := r.Price.Float64
		if report.PricedListings == 0 || p < report.MinPrice {
			report.MinPrice = p
		}
		if report.PricedListings == 0 || p > report.MaxPrice {
			report.MaxPrice = p
			report.MostExpensive = r
		}
		report.PricedListings++
		total += p

		if r.LivingArea.Valid && r.LivingArea.Float64 > 0 {
			sqmTotal += p / r.LivingArea.Float64
			sqmCount++
		}
	}

	if report.PricedListings > 0 {
		report.AveragePrice = round2(total / float64(report.PricedListings))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}
	if sqmCount > 0 {
		report.AveragePricePerSqm = round2(sqmTotal / float64(sqmCount))
	}

	for i, c := range tagCounts {
		if c > 0 && t.Vocabulary[i] != NoTagsSentinel {
			report.TopTags = append(report.TopTags, models.TagCount{Tag: t.Vocabulary[i], Count: c})
		}
	}
	sort.SliceStable(report.TopTags, func(i, j int) bool {
		return report.TopTags[i].Count > report.TopTags[j].Count
	})
	if len(report.TopTags) > topTagCount {
		report.TopTags = report.TopTags[:topTagCount]
	}

	s.logger.Debug("[insights] %d listings, %d priced", report.TotalListings, report.PricedListings)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  LISTING INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Clean listings : \033[1m%d\033[0m\n", r.TotalListings)
	for _, kc := range sortedCounts(r.ListingsByType) {
		fmt.Fprintf(w, "  %-14s : %d\n", truncate(kc.key, 14), kc.count)
	}
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m%.2f €\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m%.2f €\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m%.2f €\033[0m\n", r.MaxPrice)
		if r.AveragePricePerSqm > 0 {
			fmt.Fprintf(w, "  Average €/m²  : \033[1;32m%.2f €\033[0m\n", r.AveragePricePerSqm)
		}
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  ID    : %s\n", r.MostExpensive.ID)
		fmt.Fprintf(w, "  Place : %s %s\n", r.MostExpensive.PostalCode, r.MostExpensive.Place)
		fmt.Fprintf(w, "  Price : \033[1;31m%.2f €\033[0m\n", r.MostExpensive.Price.Float64)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Most Frequent Tags\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopTags) == 0 {
		fmt.Fprintf(w, "  No tags found\n")
	} else {
		for i, tc := range r.TopTags {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s %d\n", i+1, truncate(tc.Tag, 38), tc.Count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Postal Code\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByPostalCode) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		counts := sortedCounts(r.ListingsByPostalCode)
		for _, kc := range counts {
			bar := strings.Repeat("█", barWidth(kc.count, counts[0].count))
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders by count descending, then key.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, c := range m {
		out = append(out, keyCount{k, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

// barWidth scales count against the largest count to at most maxBarWidth
// cells. Non-zero counts get at least one cell.
func barWidth(count, largest int) int {
	if count <= 0 || largest <= 0 {
		return 0
	}
	if largest <= maxBarWidth {
		return count
	}
	w := count * maxBarWidth / largest
	if w < 1 {
		w = 1
	}
	return w
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

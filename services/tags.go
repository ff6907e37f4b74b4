package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"listing-cleaner/models"
	"listing-cleaner/utils"
)

// NoTagsSentinel is the tag given to listings that specify no tags.
// A literal "Keine Angabe" in the export is indistinguishable from it.
const NoTagsSentinel = "Keine Angabe"

const tagDelimiter = ","

var (
	leadingTagArtifact  = regexp.MustCompile(`^, `)
	trailingTagArtifact = regexp.MustCompile(`,\s*$`)
)

// ParseTags splits a raw "Merkmale" string into tags. The export leaves a
// ", " in front and a "," behind the list; both are removed before
// splitting. A result with a single element is treated as "no tags" and
// replaced by NoTagsSentinel.
func ParseTags(text string) []string {
	text = leadingTagArtifact.ReplaceAllString(text, "")
	text = trailingTagArtifact.ReplaceAllString(text, "")

	parts := strings.Split(text, tagDelimiter)
	for i, p := range parts {
		parts[i] = strings.TrimLeftFunc(p, unicode.IsSpace)
	}
	if len(parts) == 1 {
		return []string{NoTagsSentinel}
	}
	return parts
}

// Vocabulary is the sorted set of distinct tags seen in one batch.
// It is built per run and never shared between runs.
type Vocabulary struct {
	Terms []string
	index map[string]int
}

// NewVocabulary builds a vocabulary from terms in any order, dropping duplicates.
func NewVocabulary(terms []string) Vocabulary {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for t := range set {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, t := range sorted {
		index[t] = i
	}
	return Vocabulary{Terms: sorted, index: index}
}

// Len returns the number of terms.
func (v Vocabulary) Len() int { return len(v.Terms) }

// Index returns the column position of tag.
func (v Vocabulary) Index(tag string) (int, bool) {
	i, ok := v.index[tag]
	return i, ok
}

// BuildVocabulary collects the union of tags over all listings. Listings
// whose tag text has not been parsed yet are parsed on the fly.
func BuildVocabulary(listings []*models.Listing) Vocabulary {
	var terms []string
	for _, l := range listings {
		terms = append(terms, tagSequence(l.Tags)...)
	}
	return NewVocabulary(terms)
}

// Encode sets one flag per vocabulary term on every listing and drops the
// tag field. Listings without a tag field get all flags false.
func Encode(listings []*models.Listing, vocab Vocabulary) error {
	for _, l := range listings {
		flags := make([]bool, vocab.Len())
		for _, tag := range tagSequence(l.Tags) {
			i, ok := vocab.Index(tag)
			if !ok {
				return fmt.Errorf("listing %q: %w: %q", l.ID, models.ErrUnknownTag, tag)
			}
			flags[i] = true
		}
		l.Flags = flags
		l.Tags = models.TagField{}
	}
	return nil
}

// TagEncoder runs the parse, vocabulary and encode steps over a batch.
type TagEncoder struct {
	logger *utils.Logger
}

// NewTagEncoder creates a TagEncoder with the given logger.
func NewTagEncoder(logger *utils.Logger) *TagEncoder {
	return &TagEncoder{logger: logger}
}

// ParseAll turns every tag text into a tag sequence. Absent fields stay absent.
func (e *TagEncoder) ParseAll(listings []*models.Listing) {
	for _, l := range listings {
		if l.Tags.Kind == models.TagsText {
			l.Tags = models.TagField{Kind: models.TagsSequence, Tags: ParseTags(l.Tags.Text)}
		}
	}
	e.logger.Debug("[tags] merkmale cleaned and put into lists")
}

// EncodeBatch parses, builds the batch vocabulary and encodes all listings.
func (e *TagEncoder) EncodeBatch(listings []*models.Listing) (Vocabulary, error) {
	e.ParseAll(listings)
	vocab := BuildVocabulary(listings)
	if err := Encode(listings, vocab); err != nil {
		return Vocabulary{}, err
	}
	e.logger.Info("[tags] merkmale binarized into %d columns", vocab.Len())
	return vocab, nil
}

func tagSequence(f models.TagField) []string {
	switch f.Kind {
	case models.TagsSequence:
		return f.Tags
	case models.TagsText:
		return ParseTags(f.Text)
	default:
		return nil
	}
}

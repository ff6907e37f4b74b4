package services

import (
	"regexp"
	"strings"

	"listing-cleaner/models"
)

// unitSignRegexp matches a square-metre or euro annotation together with
// the whitespace (including no-break spaces) in front of it.
var unitSignRegexp = regexp.MustCompile(`[\s\p{Zs}]*(?:m²|€)`)

// EmptyToString turns an empty list placeholder into empty text so that
// "present but empty" stays distinguishable from absent.
func EmptyToString(f models.Field) models.Field {
	if f.Kind == models.FieldList && len(f.Items) == 0 {
		return models.Text("")
	}
	return f
}

// RemoveUnitSigns strips "m²" and "€" annotations. Nothing else is touched.
func RemoveUnitSigns(s string) string {
	return unitSignRegexp.ReplaceAllString(s, "")
}

// RemoveThousandDot drops every "." that is followed by exactly three digits
// and then a non-digit or the end of the text: "1.234.567" becomes "1234567".
//
// A dot followed by fewer or more than three digits ("1.23", "1.2345") is
// left alone. Known limitation: a genuine decimal dot followed by exactly
// three digits ("1.234" meaning 1.234) is read as a thousands separator;
// the upstream exports do not say which convention they use.
func RemoveThousandDot(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && digitRun(s, i+1) == 3 {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ReplaceDecimalComma rewrites a "," followed by one or two digits (and then
// a non-digit or the end) to ".": "1234,5" becomes "1234.5". Commas followed
// by anything else, such as the separators of a tag list, are kept.
func ReplaceDecimalComma(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			if n := digitRun(s, i+1); n == 1 || n == 2 {
				b.WriteByte('.')
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// NormalizeMeasure applies the unit and thousand-separator rules used on
// price and area text.
func NormalizeMeasure(s string) string {
	return RemoveThousandDot(RemoveUnitSigns(s))
}

// digitRun counts the ASCII digits starting at s[from].
func digitRun(s string, from int) int {
	n := 0
	for i := from; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n++
	}
	return n
}

package services

import (
	"regexp"
	"strings"
)

var postalCodeRegexp = regexp.MustCompile(`\d{5}`)

// SplitLocation separates a combined "12345 Some Town" string into the first
// five-digit run and the remaining place name. Without a five-digit run the
// postal code is "" and the place is the trimmed input.
func SplitLocation(text string) (postalCode, place string) {
	if text == "" {
		return "", ""
	}
	loc := postalCodeRegexp.FindStringIndex(text)
	if loc == nil {
		return "", strings.TrimSpace(text)
	}
	postalCode = text[loc[0]:loc[1]]
	place = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return postalCode, place
}

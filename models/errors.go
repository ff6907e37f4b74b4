package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparseableNumeric marks numeric text that is neither a number nor a known sentinel.
	ErrUnparseableNumeric = errors.New("unparseable numeric value")

	// ErrUnknownTag indicates a tag that is missing from the vocabulary used for encoding.
	ErrUnknownTag = errors.New("tag not in vocabulary")

	// ErrNoExports indicates the data directory holds no export files.
	ErrNoExports = errors.New("no export files found")

	// ErrBadFilename indicates an export filename that does not carry run metadata.
	ErrBadFilename = errors.New("export filename does not match <date>-<location>-<object>-<transaction>.json")
)

// ParseError reports the listing and column a numeric value failed in.
type ParseError struct {
	Column    string
	ListingID string
	Value     string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: listing %q: %q: %v", e.Column, e.ListingID, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

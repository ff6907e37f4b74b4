package storage

import "listing-cleaner/models"

// TableWriter is the interface any storage backend for the clean table must satisfy.
type TableWriter interface {
	Write(table *models.CleanTable) error
	Close() error
}

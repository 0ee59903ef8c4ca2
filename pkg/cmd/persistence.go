package cmd

import (
	"github.com/conductorhq/conductor/pkg/persistence"
	"github.com/conductorhq/conductor/pkg/persistence/file"
)

// NewPersistence picks a persistence backend from the database URL. Only
// file-based storage ships today; the file store itself strips an optional
// file:// scheme.
func NewPersistence(databaseURL string) persistence.Persistence {
	return file.NewPersistence(databaseURL)
}

// Package store provides PostgreSQL access to Searchlight's metadata tables.
// Every store receives its *sql.DB from the caller; nothing here holds a
// shared handle.
package store

import (
	"errors"
	"regexp"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

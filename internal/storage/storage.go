// Package storage defines read-only extraction from the legacy movies database.
package storage

import (
	"context"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/models"
)

// Source defines extraction operations against the legacy movies database.
type Source interface {
	// LoadWriters returns the full writer directory keyed by writer id.
	LoadWriters(ctx context.Context) (map[string]models.Person, error)

	// EachMovie streams extraction query rows through fn. A non-nil error
	// from fn stops iteration and is returned unchanged.
	EachMovie(ctx context.Context, fn func(*models.MovieRow) error) error

	Close() error
}

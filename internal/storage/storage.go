// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"lbpress/internal/model"
)

// Storage is the interface for all persistence operations. Reviews are
// written once and never deleted; the single in-place mutation path is
// UpdateBody, used by the maintenance clean pass.
type Storage interface {
	// Insert writes a record unless its (title, year) key already exists.
	// It reports whether a row was actually written, so callers can log
	// silently-dropped duplicates.
	Insert(ctx context.Context, rec model.ReviewRecord) (bool, error)

	// ListRange returns records with timestamps in [start, end], ordered
	// by timestamp ascending.
	ListRange(ctx context.Context, start, end time.Time) ([]model.ReviewRecord, error)

	// ListPosterArtifacts returns records whose body still contains the
	// film-poster image the sanitizer strips.
	ListPosterArtifacts(ctx context.Context) ([]model.ReviewRecord, error)

	// UpdateBody rewrites a record's body in place, keyed by (title, year).
	UpdateBody(ctx context.Context, title string, year int, body string) error

	Close() error
}

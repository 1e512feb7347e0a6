// Package ingest writes adapter output into the local store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"lbpress/internal/model"
	"lbpress/internal/sanitize"
	"lbpress/internal/storage"
)

// Ingestor persists canonical records one at a time, in source-iteration
// order, logging every written and dropped record.
type Ingestor struct {
	store  storage.Storage
	log    *slog.Logger
	dryRun bool
}

// New creates an Ingestor. Under dry-run no store write is attempted.
func New(store storage.Storage, log *slog.Logger, dryRun bool) *Ingestor {
	return &Ingestor{store: store, log: log, dryRun: dryRun}
}

// Store inserts each record, silently dropping (title, year) duplicates.
// A failed insert is logged and skipped without aborting the rest.
func (i *Ingestor) Store(ctx context.Context, records []model.ReviewRecord) error {
	for _, rec := range records {
		if i.dryRun {
			i.log.Info("dry run: would write review", "title", rec.Key())
			continue
		}
		written, err := i.store.Insert(ctx, rec)
		if err != nil {
			i.log.Error("write review", "title", rec.Key(), "error", err)
			continue
		}
		if !written {
			i.log.Info("dropped duplicate review", "title", rec.Key())
			continue
		}
		i.log.Info("wrote review", "title", rec.Key())
	}
	return nil
}

// Clean re-sanitizes stored records whose body still carries the
// film-poster artifact and writes the corrected body back in place. This is
// the sole post-ingestion mutation path and never touches the dedup key.
func (i *Ingestor) Clean(ctx context.Context) error {
	records, err := i.store.ListPosterArtifacts(ctx)
	if err != nil {
		return fmt.Errorf("list artifact reviews: %w", err)
	}

	for _, rec := range records {
		body, err := sanitize.Review(rec.Body, rec.Spoiler)
		if err != nil {
			i.log.Error("re-sanitize review", "title", rec.Key(), "error", err)
			continue
		}
		if sanitize.HasPosterArtifact(body) {
			i.log.Warn("poster artifact survived re-sanitize", "title", rec.Key())
			continue
		}
		if i.dryRun {
			i.log.Info("dry run: would clean review", "title", rec.Key())
			continue
		}
		if err := i.store.UpdateBody(ctx, rec.Title, rec.Year, body); err != nil {
			i.log.Error("update review body", "title", rec.Key(), "error", err)
			continue
		}
		i.log.Info("cleaned review", "title", rec.Key())
	}
	return nil
}

// Package publish renders stored reviews and performs the idempotent
// create-or-update against the remote content store.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lbpress/internal/digest"
	"lbpress/internal/model"
	"lbpress/internal/render"
	"lbpress/internal/storage"
	"lbpress/internal/wordpress"
)

// RemoteStore is the narrow remote-client surface the publisher needs.
// Implemented by *wordpress.Client.
type RemoteStore interface {
	Discover(ctx context.Context) error
	Search(ctx context.Context, q string) ([]wordpress.SearchResult, error)
	Create(ctx context.Context, doc model.RemoteDocument) error
	Update(ctx context.Context, id int64, doc model.RemoteDocument) error
}

// Publisher drives the publish path: store query, aggregation, rendering,
// and the search-keyed upsert. All calls are sequential and attempted once.
type Publisher struct {
	store  storage.Storage
	remote RemoteStore
	opts   render.Options
	log    *slog.Logger
	dryRun bool
	now    func() time.Time
}

// New creates a Publisher.
func New(store storage.Storage, remote RemoteStore, opts render.Options, log *slog.Logger, dryRun bool) *Publisher {
	return &Publisher{
		store:  store,
		remote: remote,
		opts:   opts,
		log:    log,
		dryRun: dryRun,
		now:    time.Now,
	}
}

// SetNow overrides the clock used for future-date clamping (testing).
func (p *Publisher) SetNow(now func() time.Time) {
	p.now = now
}

// Singles publishes one document per stored record in [start, end]. A
// record's failure is logged and that record abandoned; the run continues.
func (p *Publisher) Singles(ctx context.Context, start, end time.Time) error {
	if err := p.remote.Discover(ctx); err != nil {
		return fmt.Errorf("discover API root: %w", err)
	}

	records, err := p.store.ListRange(ctx, startOfDay(start), endOfDay(end))
	if err != nil {
		return fmt.Errorf("list reviews: %w", err)
	}

	for _, rec := range records {
		doc, err := render.Single(rec, p.opts)
		if err != nil {
			p.log.Error("render review", "title", rec.Key(), "error", err)
			continue
		}
		if err := p.upsert(ctx, doc, true); err != nil {
			p.log.Error("publish review", "title", doc.Title, "error", err)
		}
	}
	return nil
}

// Weekly publishes one digest document per non-empty bucket in [start, end].
// In ISO mode the bounds are first snapped outward to full Monday-to-Sunday
// weeks; in fixed mode consecutive 7-day windows are walked from start.
func (p *Publisher) Weekly(ctx context.Context, start, end time.Time, fixedWindows bool) error {
	if err := p.remote.Discover(ctx); err != nil {
		return fmt.Errorf("discover API root: %w", err)
	}

	agg := digest.New(p.store)

	var (
		digests []model.WeeklyDigest
		err     error
	)
	if fixedWindows {
		digests, err = agg.FixedWindows(ctx, start, end)
	} else {
		snapStart, snapEnd := digest.SnapToWeek(start, end)
		if !snapStart.Equal(start) {
			p.log.Info("adjusted start date to Monday", "date", snapStart.Format("2006-01-02"))
		}
		if !snapEnd.Equal(end) {
			p.log.Info("adjusted end date to Sunday", "date", snapEnd.Format("2006-01-02"))
		}
		digests, err = agg.ISOWeeks(ctx, snapStart, snapEnd)
	}
	if err != nil {
		return err
	}

	for _, d := range digests {
		doc, err := render.Digest(d, p.opts, p.now())
		if err != nil {
			p.log.Error("render digest", "title", weekLabel(d), "error", err)
			continue
		}
		if err := p.upsert(ctx, doc, false); err != nil {
			p.log.Error("publish digest", "title", doc.Title, "error", err)
		}
	}
	return nil
}

// upsert resolves the document against the remote store by title search and
// creates or updates accordingly. With matchExact set, only a result whose
// title equals the document's counts as a match; otherwise the first result
// does. Under dry-run the search still runs but no mutation is issued.
func (p *Publisher) upsert(ctx context.Context, doc model.RemoteDocument, matchExact bool) error {
	p.log.Info("searching", "title", doc.Title)
	results, err := p.remote.Search(ctx, doc.Title)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	var id int64
	if matchExact {
		for _, r := range results {
			if r.Title == doc.Title {
				id = r.ID
				p.log.Info("found existing post", "title", doc.Title, "id", id)
				break
			}
		}
	} else if len(results) > 0 {
		id = results[0].ID
		p.log.Info("found existing post", "title", doc.Title, "id", id)
	}

	if p.dryRun {
		if id != 0 {
			p.log.Info("dry run: would update post", "title", doc.Title, "id", id)
		} else {
			p.log.Info("dry run: would create post", "title", doc.Title)
		}
		return nil
	}

	if id != 0 {
		p.log.Info("updating post", "title", doc.Title, "id", id)
		if err := p.remote.Update(ctx, id, doc); err != nil {
			return fmt.Errorf("update post %d: %w", id, err)
		}
		return nil
	}

	p.log.Info("creating post", "title", doc.Title)
	if err := p.remote.Create(ctx, doc); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func weekLabel(d model.WeeklyDigest) string {
	if d.ISOWeek != 0 {
		return fmt.Sprintf("%d-W%02d", d.ISOYear, d.ISOWeek)
	}
	return d.WindowStart.Format("2006-01-02")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

// Package digest groups stored review records into publish buckets.
package digest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lbpress/internal/model"
	"lbpress/internal/storage"
)

// Aggregator builds weekly digests from the local store. Buckets that
// resolve to zero records are never materialized.
type Aggregator struct {
	store storage.Storage
}

// New creates an Aggregator over the given store.
func New(store storage.Storage) *Aggregator {
	return &Aggregator{store: store}
}

// ISOWeeks queries [start, end] once and buckets records by ISO calendar
// week (Monday start, first week contains the year's first Thursday). A
// Sunday record belongs to the week that started the preceding Monday.
func (a *Aggregator) ISOWeeks(ctx context.Context, start, end time.Time) ([]model.WeeklyDigest, error) {
	records, err := a.store.ListRange(ctx, startOfDay(start), endOfDay(end))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	type weekKey struct{ year, week int }
	buckets := make(map[weekKey]*model.WeeklyDigest)

	for _, rec := range records {
		year, week := rec.Timestamp.ISOWeek()
		key := weekKey{year, week}
		b, ok := buckets[key]
		if !ok {
			ws, we := WeekBounds(year, week)
			b = &model.WeeklyDigest{
				ISOYear:     year,
				ISOWeek:     week,
				WindowStart: ws,
				WindowEnd:   we,
			}
			buckets[key] = b
		}
		// The query is timestamp-ascending, so per-bucket order holds.
		b.Records = append(b.Records, rec)
	}

	digests := make([]model.WeeklyDigest, 0, len(buckets))
	for _, b := range buckets {
		digests = append(digests, *b)
	}
	sort.Slice(digests, func(i, j int) bool {
		return digests[i].WindowStart.Before(digests[j].WindowStart)
	})
	return digests, nil
}

// FixedWindows walks consecutive 7-day windows from start, querying the
// store once per window, until the window start passes end.
func (a *Aggregator) FixedWindows(ctx context.Context, start, end time.Time) ([]model.WeeklyDigest, error) {
	var digests []model.WeeklyDigest
	for ws := start; !ws.After(end); ws = ws.AddDate(0, 0, 7) {
		we := ws.AddDate(0, 0, 6)
		records, err := a.store.ListRange(ctx, startOfDay(ws), endOfDay(we))
		if err != nil {
			return nil, fmt.Errorf("list window %s: %w", ws.Format("2006-01-02"), err)
		}
		if len(records) == 0 {
			continue
		}
		digests = append(digests, model.WeeklyDigest{
			WindowStart: startOfDay(ws),
			WindowEnd:   startOfDay(we),
			Records:     records,
		})
	}
	return digests, nil
}

// WeekBounds returns the Monday and Sunday of the given ISO week.
func WeekBounds(isoYear, isoWeek int) (time.Time, time.Time) {
	// January 4th is always inside ISO week 1.
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, time.UTC)
	week1Monday := jan4.AddDate(0, 0, -(isoWeekday(jan4) - 1))
	monday := week1Monday.AddDate(0, 0, (isoWeek-1)*7)
	return monday, monday.AddDate(0, 0, 6)
}

// SnapToWeek moves start back to its Monday and end forward to its Sunday.
func SnapToWeek(start, end time.Time) (time.Time, time.Time) {
	if wd := isoWeekday(start); wd != 1 {
		start = start.AddDate(0, 0, -(wd - 1))
	}
	if wd := isoWeekday(end); wd != 7 {
		end = end.AddDate(0, 0, 7-wd)
	}
	return start, end
}

// isoWeekday returns the ISO weekday: Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

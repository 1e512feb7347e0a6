// Package feed converts Letterboxd RSS entries into canonical review records.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"lbpress/internal/model"
	"lbpress/internal/sanitize"
)

// reviewGUIDMarker distinguishes review entries from list and diary entries
// in the same feed.
const reviewGUIDMarker = "letterboxd-review-"

const watchedDateLayout = "2006-01-02"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter downloads and parses a Letterboxd RSS feed into review records.
type Adapter struct {
	client HTTPClient
	log    *slog.Logger
	// preferWatched selects the entry's watched date over the feed publish
	// timestamp when the entry supplies one.
	preferWatched bool
}

// New creates an Adapter with the given HTTP client.
func New(client HTTPClient, preferWatched bool, log *slog.Logger) *Adapter {
	return &Adapter{
		client:        client,
		log:           log,
		preferWatched: preferWatched,
	}
}

// FeedURL returns the RSS feed URL for a Letterboxd user.
func FeedURL(user string) string {
	return fmt.Sprintf("https://letterboxd.com/%s/rss/", user)
}

// Fetch downloads the user's feed and converts its review entries.
func (a *Adapter) Fetch(ctx context.Context, user string) ([]model.ReviewRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, FeedURL(user), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "lbpress/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return a.Records(parsed), nil
}

// Records converts review entries from a parsed feed, skipping non-review
// entries silently and malformed review entries with a logged reason.
func (a *Adapter) Records(parsed *gofeed.Feed) []model.ReviewRecord {
	var records []model.ReviewRecord
	for _, item := range parsed.Items {
		if !strings.Contains(item.GUID, reviewGUIDMarker) {
			continue
		}
		rec, err := a.record(item)
		if err != nil {
			a.log.Warn("skipping feed entry", "title", item.Title, "reason", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (a *Adapter) record(item *gofeed.Item) (model.ReviewRecord, error) {
	var rec model.ReviewRecord

	lb := item.Extensions["letterboxd"]

	title := sanitize.Title(extValue(lb, "filmTitle"))
	if title == "" {
		return rec, fmt.Errorf("missing film title")
	}

	year, err := strconv.Atoi(extValue(lb, "filmYear"))
	if err != nil {
		return rec, fmt.Errorf("parse film year: %w", err)
	}

	var rating *float64
	if raw := extValue(lb, "memberRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, fmt.Errorf("parse member rating: %w", err)
		}
		rating = &v
	}

	// Weak parse for spoilers but this is as good as it gets.
	spoiler := sanitize.TitleHasSpoilerMark(item.Title)

	ts, err := a.timestamp(lb, item)
	if err != nil {
		return rec, err
	}

	body, err := sanitize.Review(item.Description, spoiler)
	if err != nil {
		return rec, fmt.Errorf("sanitize body: %w", err)
	}

	return model.ReviewRecord{
		ID:        item.GUID,
		Title:     title,
		Year:      year,
		Rating:    rating,
		Timestamp: ts,
		Link:      item.Link,
		Body:      body,
		Spoiler:   spoiler,
	}, nil
}

// timestamp picks the watched date when preferred and present, falling back
// to the feed publish time.
func (a *Adapter) timestamp(lb map[string][]ext.Extension, item *gofeed.Item) (time.Time, error) {
	if watched := extValue(lb, "watchedDate"); watched != "" && a.preferWatched {
		t, err := time.Parse(watchedDateLayout, watched)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse watched date: %w", err)
		}
		return t, nil
	}
	if item.PublishedParsed == nil {
		return time.Time{}, fmt.Errorf("missing publish timestamp")
	}
	return *item.PublishedParsed, nil
}

func extValue(ns map[string][]ext.Extension, key string) string {
	vals := ns[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0].Value
}

// Package export converts Letterboxd CSV export rows into canonical review
// records.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"

	"lbpress/internal/model"
)

const dateLayout = "2006-01-02"

// Named columns of a Letterboxd review export.
const (
	colName       = "Name"
	colYear       = "Year"
	colRating     = "Rating"
	colWatched    = "Watched Date"
	colDate       = "Date"
	colURI        = "Letterboxd URI"
	colReview     = "Review"
	colSpoilers   = "Spoilers"
)

var requiredColumns = []string{colName, colYear, colRating, colDate, colURI, colReview}

// Adapter converts export rows into review records.
type Adapter struct {
	probe *SpoilerProbe
	log   *slog.Logger
}

// New creates an Adapter. The probe is consulted only for rows without a
// pre-computed Spoilers column.
func New(probe *SpoilerProbe, log *slog.Logger) *Adapter {
	return &Adapter{probe: probe, log: log}
}

// Read parses a CSV export and converts each row, logging and skipping
// malformed rows. A missing required column fails the whole file.
func (a *Adapter) Read(ctx context.Context, r io.Reader) ([]model.ReviewRecord, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var records []model.ReviewRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec, err := a.record(ctx, cols, row)
		if err != nil {
			a.log.Warn("skipping export row", "title", field(cols, row, colName), "reason", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (a *Adapter) record(ctx context.Context, cols map[string]int, row []string) (model.ReviewRecord, error) {
	var rec model.ReviewRecord

	title := field(cols, row, colName)
	rawYear := field(cols, row, colYear)

	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return rec, fmt.Errorf("parse year: %w", err)
	}

	var rating *float64
	if raw := field(cols, row, colRating); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, fmt.Errorf("parse rating: %w", err)
		}
		rating = &v
	}

	ts, err := timestamp(cols, row)
	if err != nil {
		return rec, err
	}

	spoiler, err := a.spoiler(ctx, cols, row)
	if err != nil {
		return rec, err
	}

	return model.ReviewRecord{
		ID:        RecordID(title, rawYear),
		Title:     title,
		Year:      year,
		Rating:    rating,
		Timestamp: ts,
		Link:      field(cols, row, colURI),
		Body:      RebuildBody(field(cols, row, colReview)),
		Spoiler:   spoiler,
	}, nil
}

// RecordID derives the dedup id for an export row. The same title and year
// always hash to the same id, making re-import of the same export
// idempotent by construction.
func RecordID(title, year string) string {
	return "letterboxd-review-" + strconv.FormatUint(xxhash.Sum64String(title+year), 10)
}

// RebuildBody reconstructs an HTML body from the export's plain text:
// blank-line-separated segments become paragraphs, remaining single
// newlines become line breaks.
func RebuildBody(review string) string {
	clean := norm.NFKD.String(review)

	var b strings.Builder
	for _, seg := range strings.Split(clean, "\n\n") {
		if seg == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(seg)
		b.WriteString("</p>")
	}
	return strings.ReplaceAll(b.String(), "\n", "<br />")
}

// timestamp prefers the watched date, falling back to the generic date
// column.
func timestamp(cols map[string]int, row []string) (time.Time, error) {
	raw := field(cols, row, colWatched)
	if raw == "" {
		raw = field(cols, row, colDate)
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// spoiler takes the pre-computed column when the export carries one and
// probes the source page otherwise.
func (a *Adapter) spoiler(ctx context.Context, cols map[string]int, row []string) (bool, error) {
	if _, ok := cols[colSpoilers]; ok {
		return parseFlag(field(cols, row, colSpoilers)), nil
	}
	flag, err := a.probe.Check(ctx, field(cols, row, colURI))
	if err != nil {
		return false, fmt.Errorf("spoiler probe: %w", err)
	}
	return flag, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return cols, nil
}

func field(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

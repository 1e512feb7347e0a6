// Package render assembles stored review records into publishable HTML
// documents, one per record or one per weekly bucket.
package render

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"lbpress/internal/config"
	"lbpress/internal/model"
)

const (
	// moreBlock is the structural "read more" marker understood by the
	// remote store. It is a comment, not visible text.
	moreBlock = "<p><!--more--></p>"

	spoilerOpen     = "[spoiler]"
	spoilerClose    = "[/spoiler]"
	spoilerWarnText = "This review contains spoilers."
)

// Options carries the rendering knobs taken from configuration.
type Options struct {
	Categories []int
	Tags       []int
	CiteStyle  config.CiteStyle
}

// Stars renders a rating as a run of '*' characters, one per full star,
// with a literal "1/2" suffix for half stars. A nil rating renders as the
// empty string.
func Stars(rating *float64) string {
	if rating == nil {
		return ""
	}
	s := strings.Repeat("*", int(*rating))
	if math.Mod(*rating, 1) != 0 {
		s += "1/2"
	}
	return s
}

// TitleString renders "Title (Year)" plus a star segment when rated.
func TitleString(title string, year int, rating *float64) string {
	s := fmt.Sprintf("%s (%d)", title, year)
	if rating != nil {
		s = fmt.Sprintf("%s: %s", s, Stars(rating))
	}
	return s
}

// JoinTitles joins titles in natural language: two titles with "and",
// three or more with commas and a final ", and".
func JoinTitles(titles []string) string {
	switch len(titles) {
	case 0:
		return ""
	case 1:
		return titles[0]
	case 2:
		return titles[0] + " and " + titles[1]
	}
	return strings.Join(titles[:len(titles)-1], ", ") + ", and " + titles[len(titles)-1]
}

// CiteTitle marks a movie title up for the digest summary line.
func CiteTitle(title string, style config.CiteStyle) string {
	escaped := html.EscapeString(title)
	if style == config.CitePlugin {
		return "[cite]" + escaped + "[/cite]"
	}
	return "<i>" + escaped + "</i>"
}

// Heading renders the per-record digest heading: the watched date followed
// by the starred title string.
func Heading(rec model.ReviewRecord) string {
	return fmt.Sprintf("%s: %s", shortDate(rec.Timestamp), TitleString(rec.Title, rec.Year, rec.Rating))
}

// Digest renders one weekly bucket into a single remote document. Blocks
// are concatenated in the bucket's (timestamp-ascending) order, each under
// its own heading, preceded by a summary paragraph and a "read more"
// marker. The publish date is the window end, clamped to now when the
// window end lies in the future.
func Digest(d model.WeeklyDigest, opts Options, now time.Time) (model.RemoteDocument, error) {
	var (
		parts  []string
		titles []string
	)

	for _, rec := range d.Records {
		block, err := digestBlock(rec)
		if err != nil {
			return model.RemoteDocument{}, fmt.Errorf("render %s: %w", rec.Key(), err)
		}
		parts = append(parts, block)
		titles = append(titles, CiteTitle(rec.Title, opts.CiteStyle))
	}

	doc, err := NewBuilder(strings.Join(parts, ""))
	if err != nil {
		return model.RemoteDocument{}, err
	}
	summary := fmt.Sprintf("Movies reviewed this week: %s.", JoinTitles(titles))
	doc.PrependBlock(moreBlock)
	doc.PrependBlock("<p>" + summary + "</p>")

	body, err := doc.HTML()
	if err != nil {
		return model.RemoteDocument{}, err
	}

	date := d.WindowEnd
	if date.After(now) {
		date = now
	}

	return model.RemoteDocument{
		Title:      fmt.Sprintf("Movie Reviews: %s to %s", shortDate(d.WindowStart), shortDate(d.WindowEnd)),
		Body:       body,
		Date:       date,
		Categories: opts.Categories,
		Tags:       opts.Tags,
		Status:     model.StatusPublish,
	}, nil
}

// Single renders one record into its own remote document. Spoiler-flagged
// records get a plain-text warning paragraph and a "read more" marker ahead
// of the body instead of the digest-mode spoiler wrapper.
func Single(rec model.ReviewRecord, opts Options) (model.RemoteDocument, error) {
	doc, err := NewBuilder(rec.Body)
	if err != nil {
		return model.RemoteDocument{}, fmt.Errorf("render %s: %w", rec.Key(), err)
	}

	if rec.Spoiler {
		doc.PrependBlock(moreBlock)
		doc.PrependBlock("<p>" + spoilerWarnText + "</p>")
	}

	body, err := doc.HTML()
	if err != nil {
		return model.RemoteDocument{}, err
	}

	return model.RemoteDocument{
		Title:      TitleString(rec.Title, rec.Year, rec.Rating),
		Body:       body,
		Date:       rec.Timestamp,
		Categories: opts.Categories,
		Tags:       opts.Tags,
		Status:     model.StatusPublish,
	}, nil
}

// digestBlock renders one record's contribution to a digest: the spoiler
// wrapper goes inside the body's first and last blocks, then the heading is
// prepended so it stays outside the wrapper.
func digestBlock(rec model.ReviewRecord) (string, error) {
	b, err := NewBuilder(rec.Body)
	if err != nil {
		return "", err
	}
	if rec.Spoiler {
		b.WrapFirst(spoilerOpen)
		b.WrapLast(spoilerClose)
	}
	b.PrependBlock("<h2>" + html.EscapeString(Heading(rec)) + "</h2>")
	return b.HTML()
}

// shortDate formats a date as m/d/yyyy without zero padding.
func shortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

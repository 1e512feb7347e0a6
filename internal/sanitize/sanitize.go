// Package sanitize normalizes raw review bodies into clean HTML fragments.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

const (
	// spoilerTitleSuffix is the marker Letterboxd appends to titles of
	// spoiler-flagged reviews.
	spoilerTitleSuffix = " (contains spoilers)"

	// spoilerWarning is the exact text of the warning block Letterboxd
	// embeds in spoiler-flagged review bodies.
	spoilerWarning = "This review may contain spoilers."

	posterSelector = `img[src*="/film-poster/"]`
)

// Review normalizes a raw HTML review body: Unicode compatibility
// normalization, removal of the embedded film-poster block, and, for
// spoiler-flagged reviews, removal of the source's own spoiler warning.
// The renderer supplies its own heading and spoiler wrapper, so both source
// blocks are redundant.
func Review(raw string, spoiler bool) (string, error) {
	clean := norm.NFKD.String(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return "", fmt.Errorf("parse review html: %w", err)
	}

	doc.Find(posterSelector).Each(func(_ int, img *goquery.Selection) {
		parent := img.Parent()
		if goquery.NodeName(parent) == "body" {
			img.Remove()
			return
		}
		parent.Remove()
	})

	if spoiler {
		doc.Find("em").Each(func(_ int, em *goquery.Selection) {
			if strings.TrimSpace(em.Text()) == spoilerWarning {
				em.Parent().Remove()
			}
		})
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize review html: %w", err)
	}
	return body, nil
}

// Title strips the spoiler suffix marker wherever titles are surfaced.
func Title(title string) string {
	return strings.ReplaceAll(title, spoilerTitleSuffix, "")
}

// TitleHasSpoilerMark reports whether a source title carries the spoiler
// suffix marker.
func TitleHasSpoilerMark(title string) bool {
	return strings.Contains(title, spoilerTitleSuffix)
}

// HasPosterArtifact reports whether a stored body still contains the
// film-poster image the sanitizer is supposed to strip. Used by the
// maintenance pass to find records ingested before the sanitizer existed.
func HasPosterArtifact(body string) bool {
	return strings.Contains(body, "/film-poster/")
}

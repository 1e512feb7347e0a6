package export

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// spoilerMetaContent is the metadata warning Letterboxd serves on
// spoiler-flagged review pages.
const spoilerMetaContent = "This review may contain spoilers. Visit the page to bypass this warning and read the review."

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SpoilerProbe determines a review's spoiler flag by fetching its source
// page and inspecting the page metadata. Each probe is followed by a fixed
// delay to bound request rate against the source site.
type SpoilerProbe struct {
	client HTTPClient
	delay  time.Duration
}

// NewSpoilerProbe creates a probe with the default 5-second delay.
func NewSpoilerProbe(client HTTPClient) *SpoilerProbe {
	return &SpoilerProbe{
		client: client,
		delay:  5 * time.Second,
	}
}

// SetDelay overrides the per-probe delay (useful for testing).
func (p *SpoilerProbe) SetDelay(d time.Duration) {
	p.delay = d
}

// Check fetches the review page at url and reports whether it carries the
// spoiler warning metadata.
func (p *SpoilerProbe) Check(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "lbpress/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return false, fmt.Errorf("parse page: %w", err)
	}

	spoiler := false
	doc.Find("meta").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		if content, ok := meta.Attr("content"); ok && content == spoilerMetaContent {
			spoiler = true
			return false
		}
		return true
	})

	// Nap a little to avoid too much traffic to the source site.
	time.Sleep(p.delay)

	return spoiler, nil
}

// Package wordpress is a narrow client for the WordPress REST API: root
// discovery, paginated search, post create/update, and taxonomy listing.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"lbpress/internal/model"
)

// apiRelation is the Link relation WordPress advertises its REST root under.
const apiRelation = "https://api.w.org/"

const dateLayout = "2006-01-02T15:04:05"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SearchResult is one item returned by the search endpoint.
type SearchResult struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Term is one taxonomy term (category or tag).
type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Client talks to one WordPress installation. Discover must succeed before
// any other call.
type Client struct {
	client  HTTPClient
	baseURL string
	token   string
	apiRoot string
	log     *slog.Logger
}

// New creates a Client for the installation at baseURL, authenticating
// search and mutation calls with the given credential pair.
func New(client HTTPClient, baseURL, user, key string, log *slog.Logger) *Client {
	return &Client{
		client:  client,
		baseURL: baseURL,
		token:   base64.StdEncoding.EncodeToString([]byte(user + ":" + key)),
		log:     log,
	}
}

// Discover resolves the REST API root from the base URL's Link header and
// verifies the installation supports the wp/v2 namespace.
func (c *Client) Discover(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("head %s: %w", c.baseURL, err)
	}
	_ = resp.Body.Close()

	root := linkByRel(resp.Header.Values("Link"), apiRelation)
	if root == "" {
		return fmt.Errorf("no API link advertised at %s", c.baseURL)
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}

	var index struct {
		Namespaces []string `json:"namespaces"`
	}
	if err := c.getJSON(ctx, root, false, nil, &index); err != nil {
		return fmt.Errorf("get API index: %w", err)
	}
	for _, ns := range index.Namespaces {
		if ns == "wp/v2" {
			c.apiRoot = root
			c.log.Debug("resolved API root", "root", root)
			return nil
		}
	}
	return fmt.Errorf("installation at %s does not support the wp/v2 API", c.baseURL)
}

// Search queries the search endpoint for q, walking pages until no further
// page is advertised.
func (c *Client) Search(ctx context.Context, q string) ([]SearchResult, error) {
	var results []SearchResult
	for page := 1; page > 0; {
		params := url.Values{
			"search":  {q},
			"_fields": {"title,id"},
			"page":    {fmt.Sprint(page)},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.endpoint("search")+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		c.authorize(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		body, err := readOK(resp)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}

		var pageResults []SearchResult
		if err := json.Unmarshal(body, &pageResults); err != nil {
			return nil, fmt.Errorf("decode search page %d: %w", page, err)
		}
		results = append(results, pageResults...)

		if linkByRel(resp.Header.Values("Link"), "next") != "" {
			page++
		} else {
			page = 0
		}
	}
	c.log.Debug("search complete", "query", q, "results", len(results))
	return results, nil
}

// Create publishes a new post from the document.
func (c *Client) Create(ctx context.Context, doc model.RemoteDocument) error {
	return c.post(ctx, c.endpoint("posts"), doc)
}

// Update rewrites the post with the given id from the document.
func (c *Client) Update(ctx context.Context, id int64, doc model.RemoteDocument) error {
	return c.post(ctx, fmt.Sprintf("%s/%d", c.endpoint("posts"), id), doc)
}

// Terms lists the installation's taxonomy terms; kind is "categories" or
// "tags".
func (c *Client) Terms(ctx context.Context, kind string) ([]Term, error) {
	var terms []Term
	if err := c.getJSON(ctx, c.endpoint(kind), false, nil, &terms); err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return terms, nil
}

type postPayload struct {
	Title      string `json:"title"`
	Date       string `json:"date"`
	Content    string `json:"content"`
	Categories []int  `json:"categories"`
	Tags       []int  `json:"tags"`
	Status     string `json:"status"`
}

func (c *Client) post(ctx context.Context, endpoint string, doc model.RemoteDocument) error {
	payload := postPayload{
		Title:      doc.Title,
		Date:       doc.Date.Format(dateLayout),
		Content:    doc.Body,
		Categories: doc.Categories,
		Tags:       doc.Tags,
		Status:     string(doc.Status),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	if _, err := readOK(resp); err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, auth bool, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if auth {
		c.authorize(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", rawURL, err)
	}
	body, err := readOK(resp)
	if err != nil {
		return fmt.Errorf("get %s: %w", rawURL, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) endpoint(name string) string {
	return c.apiRoot + "wp/v2/" + name
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Basic "+c.token)
}

func readOK(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

// linkByRel extracts the URL with the given relation from Link header
// values, e.g. `<https://example.com/wp-json/>; rel="https://api.w.org/"`.
func linkByRel(headers []string, rel string) string {
	for _, header := range headers {
		for _, link := range strings.Split(header, ",") {
			parts := strings.Split(link, ";")
			if len(parts) < 2 {
				continue
			}
			target := strings.Trim(strings.TrimSpace(parts[0]), "<>")
			for _, param := range parts[1:] {
				param = strings.TrimSpace(param)
				if value, ok := strings.CutPrefix(param, "rel="); ok {
					if strings.Trim(value, `"`) == rel {
						return target
					}
				}
			}
		}
	}
	return ""
}

// Package external provides clients for third-party reference services.
package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/wodagoat/wodagoat-data/internal/cache"
	"github.com/wodagoat/wodagoat-data/internal/metrics"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const (
	// WikipediaSource is the provenance label attached to suggestions.
	WikipediaSource = "Wikipedia"

	wikipediaBaseURL      = "https://en.wikipedia.org/api/rest_v1"
	wikipediaUserAgent    = "WoDaGOATDataBot/1.0 (athlete data quality)"
	wikipediaTimeout      = 5 * time.Second
	wikipediaRPM          = 200
	wikipediaMaxBodyBytes = 1 << 20
)

// ErrNotFound means the reference service has no usable summary for a name.
// It is never fatal to a batch.
var ErrNotFound = errors.New("summary not found")

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Summary is the part of a reference page the enrichment pipeline reads.
type Summary struct {
	Title    string `json:"title"`
	Extract  string `json:"extract"`
	ImageURL string `json:"image_url,omitempty"`
}

// summaryResponse is the REST v1 page/summary payload.
type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
	Thumbnail   *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage *struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

// ---------------------------------------------------------------------------
// WikipediaClient
// ---------------------------------------------------------------------------

// WikipediaOptions configures a WikipediaClient. Zero values pick defaults.
type WikipediaOptions struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration // per lookup
	RequestsPerMinute int
	Cache             *cache.Cache
	CacheTTL          time.Duration
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
	HTTPClient        *http.Client
}

// WikipediaClient fetches page summaries by athlete name. Each call is a
// single best-effort attempt: no retries.
type WikipediaClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
	limiter    *rate.Limiter
	cache      *cache.Cache
	cacheTTL   time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewWikipediaClient creates a rate-limited summary client.
func NewWikipediaClient(opts WikipediaOptions) *WikipediaClient {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = wikipediaBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = wikipediaUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = wikipediaTimeout
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = wikipediaRPM
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	rps := float64(opts.RequestsPerMinute) / 60.0
	return &WikipediaClient{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
}

// Source returns the provenance label for suggestions built from this client.
func (c *WikipediaClient) Source() string { return WikipediaSource }

// FetchSummary looks up the summary for an athlete name. Failed, timed-out
// or malformed lookups are logged and reported as ErrNotFound.
func (c *WikipediaClient) FetchSummary(ctx context.Context, name string) (*Summary, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}

	key := "wikipedia:" + strings.ToLower(name)
	if data, ok := c.cache.Get(key); ok {
		c.metrics.Lookup(metrics.LookupCached)
		if data == nil {
			return nil, ErrNotFound
		}
		var s Summary
		if err := json.Unmarshal(data, &s); err == nil {
			return &s, nil
		}
	}

	summary, definitive, err := c.fetch(ctx, name)
	if err != nil {
		if definitive {
			c.metrics.Lookup(metrics.LookupNotFound)
			c.cache.Set(key, nil, c.cacheTTL)
		} else {
			c.metrics.Lookup(metrics.LookupError)
		}
		c.logger.Warn("Wikipedia lookup returned no data", "athlete", name, "error", err)
		return nil, ErrNotFound
	}

	c.metrics.Lookup(metrics.LookupFound)
	if data, err := json.Marshal(summary); err == nil {
		c.cache.Set(key, data, c.cacheTTL)
	}
	return summary, nil
}

// fetch performs one bounded GET. definitive is true when the service
// answered but had nothing usable, so the miss may be cached.
func (c *WikipediaClient) fetch(ctx context.Context, name string) (_ *Summary, definitive bool, _ error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + "/page/summary/" + titlePath(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, wikipediaMaxBodyBytes))
	if err != nil {
		return nil, false, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, true, fmt.Errorf("wikipedia returned 404")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("wikipedia returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var payload summaryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	extract := strings.TrimSpace(payload.Extract)
	if extract == "" && payload.ExtractHTML != "" {
		extract = htmlText(payload.ExtractHTML)
	}
	if extract == "" {
		return nil, true, fmt.Errorf("summary has no extract")
	}

	s := &Summary{Title: payload.Title, Extract: extract}
	if payload.Thumbnail != nil && payload.Thumbnail.Source != "" {
		s.ImageURL = payload.Thumbnail.Source
	} else if payload.OriginalImage != nil {
		s.ImageURL = payload.OriginalImage.Source
	}
	return s, false, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// titlePath turns a display name into an escaped page title.
func titlePath(name string) string {
	return url.PathEscape(strings.ReplaceAll(name, " ", "_"))
}

// htmlText returns the whitespace-collapsed text content of an HTML fragment.
func htmlText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(b.String()), " ")
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

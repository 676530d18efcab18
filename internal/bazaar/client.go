package bazaar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/malscan/malscan/internal/feed"
)

// DefaultTimeout bounds every remote call when the caller does not
// override it.
const DefaultTimeout = 60 * time.Second

// Client talks to the remote feed service.
type Client struct {
	apiURL  string
	feedURL string
	authKey string
	http    *http.Client
}

// Options configures a Client.
type Options struct {
	// APIURL is the query endpoint (latest-timestamp requests).
	APIURL string

	// FeedURL is the bulk CSV export endpoint.
	FeedURL string

	// AuthKey authenticates query requests. May be empty for
	// endpoints that do not require it.
	AuthKey string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client, for tests.
	HTTPClient *http.Client
}

// New builds a Client from opts.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiURL:  opts.APIURL,
		feedURL: opts.FeedURL,
		authKey: opts.AuthKey,
		http:    hc,
	}
}

// recentResponse is the wire shape of the latest-sample query.
type recentResponse struct {
	QueryStatus string `json:"query_status"`
	Data        []struct {
		FirstSeen string `json:"first_seen"`
	} `json:"data"`
}

// LatestTimestamp queries the service for its most recent sample set and
// returns the maximum first-seen timestamp, with its raw string form.
//
// Any failure (network, non-2xx, malformed body, application-level
// error status, empty result set) returns a non-nil error. Callers must
// treat that as "freshness unknown", not as stale or fresh.
func (c *Client) LatestTimestamp(ctx context.Context) (time.Time, string, error) {
	form := url.Values{}
	form.Set("query", "get_recent")
	form.Set("selector", "time")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.authKey != "" {
		req.Header.Set("Auth-Key", c.authKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("query remote feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, "", fmt.Errorf("query remote feed: unexpected status %s", resp.Status)
	}

	var body recentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, "", fmt.Errorf("decode query response: %w", err)
	}
	if body.QueryStatus != "ok" {
		return time.Time{}, "", fmt.Errorf("query rejected: status %q", body.QueryStatus)
	}
	if len(body.Data) == 0 {
		return time.Time{}, "", fmt.Errorf("query returned no samples")
	}

	var (
		newest time.Time
		raw    string
		found  bool
	)
	for _, sample := range body.Data {
		ts, err := feed.ParseTime(sample.FirstSeen)
		if err != nil {
			continue
		}
		if !found || ts.After(newest) {
			newest, raw, found = ts, strings.TrimSpace(sample.FirstSeen), true
		}
	}
	if !found {
		return time.Time{}, "", fmt.Errorf("query returned no parseable timestamps")
	}

	return newest, raw, nil
}

// Download fetches the full feed CSV and writes it to dest, creating or
// truncating the file. dest is expected to be a staging path; the caller
// owns the atomic promotion to the live mirror. On any error the partial
// file is removed.
func (c *Client) Download(ctx context.Context, dest string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download feed: unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(dest)
		}
	}()

	if _, err = io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("write staging file: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync staging file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close staging file: %w", err)
	}
	return nil
}

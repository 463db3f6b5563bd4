// Package sites fetches published exposure-site records from an ArcGIS-style
// feature service and parses them into dated time windows.
package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/xposure-dev/xposure/pkg/feedcache"
)

// Site is one published site-visit entry, still in geographic coordinates.
type Site struct {
	Name        string `validate:"required"`
	ContactTier string
	Latitude    float64
	Longitude   float64
	Date        time.Time `validate:"required"`
	Arrival     time.Time
	Departure   time.Time
}

// Client queries one feature-service layer. Fetches go through a retrying
// HTTP client wrapped by the feed cache, so a fresh cached copy short-circuits
// the network entirely.
type Client struct {
	logger *slog.Logger
	cached *feedcache.CachedClient
	url    string
	loc    *time.Location
}

// NewClient builds a feed client for the service at feedURL. Wall-clock times
// in the feed are interpreted in loc. cache may be nil to disable caching.
func NewClient(feedURL string, loc *time.Location, httpClient *http.Client, cache *feedcache.Cache, logger *slog.Logger) *Client {
	inner := &retryingClient{client: httpClient, logger: logger}
	return &Client{
		logger: logger,
		cached: feedcache.NewCachedClient(cache, inner, logger),
		url:    feedURL,
		loc:    loc,
	}
}

// Sites fetches and parses all currently published exposure sites.
func (c *Client) Sites(ctx context.Context) ([]Site, error) {
	queryURL, err := c.queryURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	resp, err := c.cached.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("querying exposure feed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close feed response body", "error", closeErr)
		}
	}()

	if resp.Header.Get("X-From-Cache") == "true" {
		c.logger.Debug("exposure feed served from cache")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exposure feed returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed response: %w", err)
	}

	var set featureSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decoding feed response: %w", err)
	}
	if set.Error != nil {
		return nil, fmt.Errorf("exposure feed error %d: %s", set.Error.Code, set.Error.Message)
	}

	return c.parseFeatures(set.Features)
}

// queryURL asks layer 0 for every point record, with geometry in WGS84.
func (c *Client) queryURL() (string, error) {
	base, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("invalid feed url %q: %w", c.url, err)
	}
	base = base.JoinPath("0", "query")
	q := url.Values{}
	q.Set("where", "X>0")
	q.Set("outFields", "*")
	q.Set("outSR", "4326")
	q.Set("returnGeometry", "true")
	q.Set("f", "json")
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// retryingClient performs HTTP requests with exponential backoff and jitter.
type retryingClient struct {
	client *http.Client
	logger *slog.Logger
}

func (r *retryingClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	err := retry.Do(
		func() error {
			var err error
			resp, err = r.client.Do(req)
			if err != nil {
				lastErr = err
				return err
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden || resp.StatusCode >= 500 {
				body, _ := io.ReadAll(resp.Body)
				_ = resp.Body.Close()
				lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
				return lastErr
			}
			return nil
		},
		retry.Context(req.Context()),
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug("retrying feed request", "attempt", n+1, "url", req.URL.String(), "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("feed request failed after retries: %w", lastErr)
	}
	return resp, nil
}

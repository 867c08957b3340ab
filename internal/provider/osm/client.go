// Package osm implements place search with Nominatim and driving routes with
// OSRM, both OpenStreetMap-based HTTP services.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent identifies the service per the OSM usage policy.
	DefaultUserAgent = "service-mapsearch/1.0"
	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 5 * time.Second
	// DefaultRateLimit is 1 request per second (OSM policy).
	DefaultRateLimit = rate.Limit(1.0)
	// DefaultMaxRetries for transient errors.
	DefaultMaxRetries = 2
	// RetryBaseDelay is the initial backoff delay.
	RetryBaseDelay = 500 * time.Millisecond
)

// httpClient is the rate-limited, retrying GET client shared by the
// Nominatim and OSRM clients.
type httpClient struct {
	http       *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

// Option configures a client.
type Option func(*httpClient)

// WithRateLimit sets a custom rate limit (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMaxRetries sets how many times transient failures are retried.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the initial backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *httpClient) {
		c.baseDelay = d
	}
}

func newHTTPClient(email string, opts ...Option) *httpClient {
	ua := DefaultUserAgent
	if email != "" {
		ua = fmt.Sprintf("%s (%s)", DefaultUserAgent, email)
	}
	c := &httpClient{
		http:       &http.Client{Timeout: DefaultTimeout},
		userAgent:  ua,
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
		maxRetries: DefaultMaxRetries,
		baseDelay:  RetryBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON executes a GET with exponential backoff retry and decodes the body
// into result. Network errors, 429 and 5xx responses are retried.
func (c *httpClient) getJSON(ctx context.Context, requestURL string, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error (%d)", resp.StatusCode)
			continue
		}
		// OSRM answers unroutable requests with 400 and a JSON body carrying
		// the reason, so 4xx bodies are still decoded.
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(body, 200))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

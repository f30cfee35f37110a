// Package papersources provides the shared HTTP plumbing for external
// academic paper APIs: a token-bucket rate limiter in front of every
// request and bounded retries that honor Retry-After.
package papersources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client defaults. arXiv asks for at most 3 requests per second; the
// generic defaults here are loose enough for any of the sources.
const (
	defaultTimeout    = 30 * time.Second
	defaultRateLimit  = 10
	defaultBurstSize  = 10
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	defaultUserAgent  = "LitXplore/1.0"
)

// HTTPClientConfig configures the shared HTTP client.
type HTTPClientConfig struct {
	// Timeout bounds each request attempt.
	Timeout time.Duration
	// RateLimit is the sustained requests per second.
	RateLimit float64
	// BurstSize is the token bucket capacity.
	BurstSize int
	// MaxRetries is how many times a failed request is retried.
	MaxRetries int
	// RetryDelay is the wait between retries when the server does not
	// say otherwise via Retry-After.
	RetryDelay time.Duration
	// UserAgent is sent with every request that has none of its own.
	UserAgent string
}

func (c *HTTPClientConfig) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.BurstSize <= 0 {
		c.BurstSize = defaultBurstSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// HTTPClient is a rate-limited, retrying HTTP client shared by the
// paper source clients. Safe for concurrent use.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
	config  HTTPClientConfig
}

// NewHTTPClient creates the client. Every request waits on the token
// bucket first; 429 and 5xx responses are retried up to MaxRetries
// times, honoring Retry-After when the server sends one.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	cfg.applyDefaults()
	return &HTTPClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstSize),
		config:  cfg,
	}
}

// Do executes the request. Requests with a body must set GetBody so the
// body can be replayed on retry; http.NewRequest does this for common
// body types.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.rewindBody(req); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if waitErr := sleepCtx(req.Context(), c.config.RetryDelay); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		delay := c.retryDelay(resp)
		drain(resp)
		if waitErr := sleepCtx(req.Context(), delay); waitErr != nil {
			return nil, waitErr
		}
	}

	return nil, fmt.Errorf("exhausted %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// retryableStatus reports whether the response warrants another try.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}

// retryDelay picks the wait before the next attempt. Retry-After wins
// when present and parseable, as delay-seconds or as an HTTP date.
func (c *HTTPClient) retryDelay(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return c.config.RetryDelay
	}
	if seconds, err := strconv.ParseInt(header, 10, 64); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return c.config.RetryDelay
}

// rewindBody restores the request body from GetBody for a retry.
func (c *HTTPClient) rewindBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("cannot replay request body: %w", err)
	}
	req.Body = body
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// drain discards and closes a response body so the connection can be
// reused.
func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

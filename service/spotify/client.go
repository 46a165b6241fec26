package spotify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	// Cap on how long a Retry-After header can make us wait. Spotify
	// occasionally asks for minutes; better to fail the request.
	maxRateLimitWait = 10 * time.Second
	requestTimeout   = 10 * time.Second
)

// requestClient is the single place outbound retry and backoff policy
// lives. Every Spotify call, token exchanges included, goes through do.
type requestClient struct {
	httpClient *http.Client
	logger     *log.Logger
}

func newRequestClient(logger *log.Logger) *requestClient {
	return &requestClient{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// do issues an HTTP request with bounded retries. 429 responses are
// absorbed here: we honor Retry-After up to maxRateLimitWait and try
// again, consuming an attempt. Transport failures retry with 2^attempt
// seconds of backoff. Any other status, success or not, is returned
// untouched for the caller to interpret. After exhausting retries the
// provider is reported unavailable via a non-nil error.
func (c *requestClient) do(ctx context.Context, method, rawURL string, header http.Header, params url.Values, body []byte) (*http.Response, error) {
	if params != nil {
		if u, err := url.Parse(rawURL); err == nil {
			q := u.Query()
			for k, vs := range params {
				for _, v := range vs {
					q.Set(k, v)
				}
			}
			u.RawQuery = q.Encode()
			rawURL = u.String()
		}
	}

	for attempt := 0; attempt < defaultMaxRetries; attempt++ {
		var reqBody *bytes.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		} else {
			reqBody = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request canceled: %w", ctx.Err())
			}
			if attempt == defaultMaxRetries-1 {
				return nil, fmt.Errorf("request failed after %d attempts: %w", defaultMaxRetries, err)
			}
			backoff := time.Duration(1<<attempt) * time.Second
			c.logger.Printf("request error: %v, retrying in %s", err, backoff)
			if err := sleepWithContext(ctx, backoff); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp)
			resp.Body.Close()

			wait := retryAfter
			if wait > maxRateLimitWait {
				wait = maxRateLimitWait
			}
			c.logger.Printf("rate limited (429), waiting %s (asked for %s)", wait, retryAfter)
			if err := sleepWithContext(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		// Every other status is the caller's business.
		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: rate limited", defaultMaxRetries)
}

func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 5 * time.Second
}

// sleepWithContext waits without blocking sibling goroutines and wakes
// early on cancellation.
func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

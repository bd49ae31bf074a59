// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across provider clients.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/bibcheck/internal/ratelimit"
)

// Backoff bases for retries. Tests override these to avoid real sleeps.
var (
	// RetryBaseDelay is the base duration for backoff after a transport
	// error or a non-429 HTTP failure.
	RetryBaseDelay = 2 * time.Second

	// RateLimitDelay is the base duration for backoff after HTTP 429.
	RateLimitDelay = 10 * time.Second
)

const defaultMaxRetries = 3

// DoWithRetry executes an HTTP request through limiter and retries failed
// attempts with linear backoff: attempt n waits (n+1) times the base delay,
// with RateLimitDelay used for 429 responses and RetryBaseDelay for
// everything else. Any 2xx/3xx response and 404 are returned to the caller
// without retrying; 404 is a definitive answer, not a failure.
//
// When maxRetries is 0 the default (3) is used. Failed response bodies are
// drained and closed before sleeping. If the context is cancelled during a
// backoff wait the function returns ctx.Err(). After exhausting retries the
// last failure is returned as an error.
func DoWithRetry(ctx context.Context, client *http.Client, limiter *ratelimit.Limiter, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		var resp *http.Response
		send := func() error {
			r, err := cloneRequest(ctx, req)
			if err != nil {
				return err
			}
			resp, err = client.Do(r)
			return err
		}

		var err error
		if limiter != nil {
			err = limiter.Execute(send)
		} else {
			err = send()
		}

		delay := RetryBaseDelay
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode < 400 || resp.StatusCode == http.StatusNotFound:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			drain(resp)
			lastErr = fmt.Errorf("HTTP 429 from %s", req.URL.Host)
			delay = RateLimitDelay
		default:
			drain(resp)
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
		}

		if attempt == maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * delay):
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

// cloneRequest copies req for one attempt, rewinding the body via GetBody so
// POST requests survive retries.
func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	c := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		c.Body = body
	}
	return c, nil
}

// drain empties and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the statement database client.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 5 * time.Second

// maxRetryAfter caps a server-supplied Retry-After value.
const maxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 5

// Retryable reports whether status is worth retrying: throttling or a
// gateway that gave up on a slow database query.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Doer executes requests through a shared client, pacing them with an
// optional token-bucket limiter and retrying Retryable responses with
// exponential backoff: base, 2*base, 4*base, ...
type Doer struct {
	Client     *http.Client
	Limiter    *rate.Limiter
	MaxRetries int

	// OnRetry, when set, is called before each backoff wait.
	OnRetry func(attempt int, status int, wait time.Duration)
}

// NewDoer returns a Doer allowing requestsPerSecond with a burst of one.
// A non-positive rate disables pacing.
func NewDoer(client *http.Client, requestsPerSecond float64, maxRetries int) *Doer {
	d := &Doer{Client: client, MaxRetries: maxRetries}
	if requestsPerSecond > 0 {
		d.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return d
}

// Do sends req, retrying as described on Doer. When MaxRetries is 0 the
// default (5) is used. A retried response body is drained and closed
// before sleeping. After exhausting retries the last response is returned
// so the caller can inspect it. Context cancellation during a limiter or
// backoff wait returns ctx.Err().
func (d *Doer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := d.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := d.Client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := RetryBaseDelay << attempt
		if ra, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
			backoff = ra
		}
		if d.OnRetry != nil {
			d.OnRetry(attempt+1, resp.StatusCode, backoff)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d, true
}

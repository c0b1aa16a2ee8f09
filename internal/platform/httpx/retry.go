// Package httpx holds the outbound HTTP plumbing shared by the API clients:
// status errors and retry with exponential backoff.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// StatusError is returned for any response with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Retrier sends requests and retries transient failures.
type Retrier struct {
	Client      *http.Client
	MaxAttempts int
	Backoff     time.Duration
}

func NewRetrier(timeout time.Duration) *Retrier {
	return &Retrier{
		Client:      &http.Client{Timeout: timeout},
		MaxAttempts: 4,
		Backoff:     200 * time.Millisecond,
	}
}

func (r *Retrier) do(req *http.Request) (*http.Response, error) {
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// Retryable reports whether err is worth another attempt:
// 429, 5xx gateway responses and network errors.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Do retries transient failures using exponential backoff while respecting
// context cancellation. makeReq is called once per attempt so request bodies
// are never reused.
func (r *Retrier) Do(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := r.Backoff

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := r.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == attempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

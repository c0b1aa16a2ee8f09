package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetrier() *Retrier {
	r := NewRetrier(time.Second)
	r.Backoff = time.Millisecond
	return r
}

func getter(ctx context.Context, url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestRetrierRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := newTestRetrier().Do(context.Background(), getter(context.Background(), srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetrierStopsOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such vehicle", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestRetrier().Do(context.Background(), getter(context.Background(), srv.URL))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "no such vehicle", se.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetrierGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestRetrier().Do(context.Background(), getter(context.Background(), srv.URL))
	require.Error(t, err)
	assert.True(t, Retryable(err))
	assert.Equal(t, int32(4), calls.Load())
}

func TestRetrierHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRetrier().Do(ctx, getter(ctx, "http://127.0.0.1:1"))
	assert.ErrorIs(t, err, context.Canceled)
}

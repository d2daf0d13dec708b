package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(opts ...ClientOption) *Client {
	base := []ClientOption{
		WithRateLimit(0),
		WithRetry(0, time.Millisecond, time.Millisecond),
	}
	return NewClient(append(base, opts...)...)
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "metafill/"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient()
	resp, err := c.Get(context.Background(), srv.URL, http.Header{"Accept": []string{"text/plain"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType())
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
}

func TestGet_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, nil, IsNotFound},
		{"unauthorized", http.StatusUnauthorized, nil, IsAuthError},
		{"forbidden", http.StatusForbidden, nil, IsAuthError},
		{"github rate limit", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0"}, IsRateLimited},
		{"too many requests", http.StatusTooManyRequests, nil, IsRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient().Get(context.Background(), srv.URL, nil)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error classification: %v", err)
		})
	}
}

func TestGet_ServerErrorIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "upstream down")
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	c := NewClient(WithRateLimit(0), WithRetry(3, time.Millisecond, 2*time.Millisecond))
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "finally", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient()
	var err error
	for i := 0; i < 7; i++ {
		_, err = c.Get(context.Background(), srv.URL, nil)
	}
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGet_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient()
	for i := 0; i < 10; i++ {
		_, err := c.Get(context.Background(), srv.URL, nil)
		require.True(t, IsNotFound(err), "iteration %d: %v", i, err)
	}
}

func TestGet_Mailto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	c := newTestClient(WithUserAgent("inventory-bot/2"), WithMailto("info@example.org"))
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "inventory-bot/2 (mailto:info@example.org)", string(resp.Body))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"name":"requests"}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, newTestClient().GetJSON(context.Background(), srv.URL, nil, &out))
	assert.Equal(t, "requests", out.Name)
}

func TestGetJSON_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	var out map[string]any
	err := newTestClient().GetJSON(context.Background(), srv.URL, nil, &out)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGet_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(WithRateLimit(1)).Get(ctx, "http://127.0.0.1:1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(srv.URL+"/", opts...)
	require.NoError(t, err)
	return c, srv
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://localhost:8080", false},
		{"https", "https://api.example.com", false},
		{"empty", "", true},
		{"bad scheme", "ftp://example.com", true},
		{"unparseable", "http://[::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.url)
			if tt.wantErr {
				assert.Nil(t, c)
				assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c, err := NewClient("http://localhost",
		WithHTTPClient(hc),
		WithTimeout(2*time.Second),
		WithAPIKey("secret"),
		WithRetryMax(0),
		WithRetryWait(10*time.Millisecond, time.Second),
		WithUserAgent("custom/1.0"),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 2*time.Second, hc.Timeout)
	assert.Equal(t, "secret", c.apiKey)
	assert.Equal(t, 0, c.retryMax)
	assert.Equal(t, 10*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, time.Second, c.retryWaitMax)
	assert.Equal(t, "custom/1.0", c.userAgent)
	assert.Same(t, c.Predictions(), c.Predictions())
}

func TestDo_HeadersAndBody(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v", body["k"])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, WithAPIKey("k1"))

	var out struct{ OK bool }
	require.NoError(t, c.do(context.Background(), http.MethodPost, "echo", "req-1", map[string]string{"k": "v"}, &out))
	assert.True(t, out.OK)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer k1", got.Get("Authorization"))
	assert.Equal(t, "req-1", got.Get(requestIDHeader))
	assert.Contains(t, got.Get("User-Agent"), "treatiq-go-sdk/")
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"PRED_001","message":"invalid patient profile","detail":"age","request_id":"srv-1"}`))
	})

	err := c.do(context.Background(), http.MethodGet, "/x", "", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, apiErr.IsValidation())
	assert.Equal(t, "PRED_001", apiErr.Code)
	assert.Equal(t, "age", apiErr.Detail)
	assert.Equal(t, "srv-1", apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "PRED_001")
}

func TestDo_ServerErrorRetriedWithSameRequestID(t *testing.T) {
	var calls int32
	ids := make(chan string, 4)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(requestIDHeader)
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, c.do(context.Background(), http.MethodGet, "/x", "", nil, nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	first := <-ids
	assert.NotEmpty(t, first)
	assert.Equal(t, first, <-ids)
	assert.Equal(t, first, <-ids)
}

func TestDo_RetriesExhausted(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}, WithRetryMax(2))

	err := c.do(context.Background(), http.MethodGet, "/x", "", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "boom", apiErr.Message)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_RateLimitHonoursRetryAfter(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	require.NoError(t, c.do(context.Background(), http.MethodGet, "/x", "", nil, nil))
	assert.Equal(t, []time.Duration{7 * time.Second}, waits)
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := NewClient(addr, WithRetryMax(1), WithRetryWait(time.Millisecond, time.Millisecond))
	require.NoError(t, err)
	err = c.do(context.Background(), http.MethodGet, "/x", "", nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, WithRetryWait(time.Hour, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.do(ctx, http.MethodGet, "/x", "", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculateBackoff(t *testing.T) {
	c, err := NewClient("http://localhost", WithRetryWait(100*time.Millisecond, time.Second))
	require.NoError(t, err)

	for attempt, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 400 * time.Millisecond, 10: time.Second} {
		got := c.calculateBackoff(attempt)
		assert.GreaterOrEqual(t, got, base)
		assert.Less(t, got, base+base/4+time.Nanosecond)
	}
}

func TestReady(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/readyz", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
	}, WithRetryMax(0))

	err := c.Ready(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), apiErr.Message)
}

//Personal.AI order the ending

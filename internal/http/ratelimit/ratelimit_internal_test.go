package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type memCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hits == nil {
		m.hits = make(map[string]int64)
	}

	m.hits[key]++

	return m.hits[key], nil
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func hit(h http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestLimiter_BlocksOverLimit(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 30, 0, time.UTC)

	l := New(&memCounter{}, 2, time.Minute)
	l.now = func() time.Time { return now }

	h := l.Middleware(ok)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5000").Code)

	rec := hit(h, "10.0.0.1:5001")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = hit(h, "10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "31", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())

	// Other clients have their own budget.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:5000").Code)

	// A new window resets the count.
	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5003").Code)
}

func TestLimiter_PassThrough(t *testing.T) {
	tests := []struct {
		name    string
		limiter *Limiter
	}{
		{name: "NoCounter", limiter: New(nil, 1, time.Minute)},
		{name: "Disabled", limiter: New(&memCounter{}, 0, time.Minute)},
		{name: "CounterFailsOpen", limiter: New(&memCounter{err: errors.New("redis down")}, 1, time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.limiter.Middleware(ok)

			for range 3 {
				assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5000").Code)
			}
		})
	}
}

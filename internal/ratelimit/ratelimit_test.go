package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowRefills(t *testing.T) {
	l := New(2, time.Second)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are independent")
	assert.Equal(t, 500*time.Millisecond, l.RetryAfter("a"))

	now = now.Add(500 * time.Millisecond)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	l.Reset("a")
	assert.True(t, l.Allow("a"))
}

func TestCleanup(t *testing.T) {
	l := New(1, time.Second)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("a")

	now = now.Add(3 * time.Second)
	l.cleanup()
	assert.Empty(t, l.entries)
}

func TestMiddleware(t *testing.T) {
	l := New(1, time.Minute)
	h := Middleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parse?q=foo", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	health := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	health.RemoteAddr = req.RemoteAddr
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, health)
	assert.Equal(t, http.StatusOK, rec.Code)

	keyed := httptest.NewRequest(http.MethodGet, "/api/v1/parse?q=foo", nil)
	keyed.RemoteAddr = req.RemoteAddr
	keyed.Header.Set("X-API-Key", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, keyed)
	assert.Equal(t, http.StatusOK, rec.Code)
}

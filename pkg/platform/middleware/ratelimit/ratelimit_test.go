package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Middleware(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0.001, Burst: 2})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("192.0.2.1:1001").Code)

	rec := do("192.0.2.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other clients keep their own bucket.
	assert.Equal(t, http.StatusOK, do("192.0.2.99:1000").Code)
}

func TestLimiter_EvictsIdleClients(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.get("192.0.2.1")
	assert.Len(t, l.clients, 1)

	now = now.Add(2 * time.Minute)
	l.get("192.0.2.2")
	assert.Len(t, l.clients, 1)
	_, ok := l.clients["192.0.2.2"]
	assert.True(t, ok)
}

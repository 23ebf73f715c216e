package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_BurstThenRefill(t *testing.T) {
	l := NewTokenBucketLimiter(1, 2, 0)
	clock := time.Unix(1000, 0)
	l.now = func() time.Time { return clock }

	ok, info := l.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, info.Remaining)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
	ok, info = l.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 0, info.Remaining)

	ok, _ = l.Allow("b")
	assert.True(t, ok, "keys are independent")

	clock = clock.Add(time.Second)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 2, l.BucketCount())
}

func TestTokenBucketLimiter_Cleanup(t *testing.T) {
	l := NewTokenBucketLimiter(1, 1, 0)
	l.cleanupInterval = time.Minute
	clock := time.Unix(1000, 0)
	l.now = func() time.Time { return clock }

	l.Allow("a")
	clock = clock.Add(2 * time.Minute)
	l.Allow("b")
	l.cleanup()
	assert.Equal(t, 1, l.BucketCount())

	l.Stop()
	l.Stop()
}

func TestRateLimit_Rejects(t *testing.T) {
	l := NewTokenBucketLimiter(0.5, 1, 0)
	handler := RateLimit(l, nil)(okHandler())

	serve := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/templates/evaluate", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		handler.ServeHTTP(w, r)
		return w
	}

	first := serve()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := serve()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "COMMON_007")
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.7:4000"
	assert.Equal(t, "192.168.1.7", ClientKey(r))

	r.RemoteAddr = "192.168.1.7"
	assert.Equal(t, "192.168.1.7", ClientKey(r))
}

//Personal.AI order the ending

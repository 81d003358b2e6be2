package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/torneo/internal/server/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { //nolint:gochecknoglobals // test fixture
	w.WriteHeader(http.StatusOK)
})

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitByIP_FirstRequest_Passes(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimitByIP(t.Context(), 1, 1)(okHandler)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitByIP_BurstExceeded_Returns429(t *testing.T) {
	t.Parallel()

	// Very low rate (effectively zero refill during the test) with burst of 2.
	handler := middleware.RateLimitByIP(t.Context(), 0.001, 2)(okHandler)

	// Ports differ; the client is the same.
	for i, addr := range []string{"10.0.0.1:5000", "10.0.0.1:5001"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestFrom(addr))
		require.Equalf(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("10.0.0.1:5002"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimitByIP_IndependentPerClient(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimitByIP(t.Context(), 0.001, 1)(okHandler)

	recA := httptest.NewRecorder()
	handler.ServeHTTP(recA, requestFrom("10.0.0.1:5000"))
	require.Equal(t, http.StatusOK, recA.Code)

	recA2 := httptest.NewRecorder()
	handler.ServeHTTP(recA2, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, recA2.Code)

	recB := httptest.NewRecorder()
	handler.ServeHTTP(recB, requestFrom("10.0.0.2"))
	assert.Equal(t, http.StatusOK, recB.Code)
}

func TestRateLimit_CustomKey(t *testing.T) {
	t.Parallel()

	byHeader := func(r *http.Request) string { return r.Header.Get("X-Team") }
	handler := middleware.RateLimit(t.Context(), 0.001, 1, byHeader)(okHandler)

	send := func(team, addr string) int {
		req := requestFrom(addr)
		req.Header.Set("X-Team", team)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("T1", "10.0.0.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, send("T1", "10.0.0.2:1"), "same key from another address")
	assert.Equal(t, http.StatusOK, send("T2", "10.0.0.1:1"))
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10.0.0.1", middleware.ClientIP(requestFrom("10.0.0.1:5000")))
	assert.Equal(t, "10.0.0.2", middleware.ClientIP(requestFrom("10.0.0.2")))
	assert.Equal(t, "::1", middleware.ClientIP(requestFrom("[::1]:80")))
}

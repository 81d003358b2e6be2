// Package middleware holds HTTP middleware for the ops server.
package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"
)

const (
	sweepEvery = 10 * time.Minute
	idleAfter  = 30 * time.Minute
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// buckets is a set of token buckets keyed by client.
type buckets struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byKey map[string]*bucket
}

func newBuckets(rps float64, burst int) *buckets {
	return &buckets{rps: rate.Limit(rps), burst: burst, byKey: make(map[string]*bucket)}
}

func (b *buckets) allow(key string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.rps, b.burst)}
		b.byKey[key] = bk
	}
	bk.seen = now
	return bk.limiter.AllowN(now, 1)
}

func (b *buckets) sweep(cutoff time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, bk := range b.byKey {
		if bk.seen.Before(cutoff) {
			delete(b.byKey, key)
		}
	}
}

// RateLimit counts requests per key with a token bucket of rps and burst.
// Idle buckets are dropped every 10 minutes until ctx is done.
func RateLimit(ctx context.Context, rps float64, burst int, key KeyFunc) func(http.Handler) http.Handler {
	b := newBuckets(rps, burst)

	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				b.sweep(now.Add(-idleAfter))
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if !b.allow(k, time.Now()) {
				hlog.FromRequest(r).Debug().Str("client", k).Str("path", r.URL.Path).Msg("rate limited")
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits per client address. Behind chi's RealIP the address is
// the forwarded one.
func RateLimitByIP(ctx context.Context, rps float64, burst int) func(http.Handler) http.Handler {
	return RateLimit(ctx, rps, burst, ClientIP)
}

// ClientIP returns the request's remote address without the port.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

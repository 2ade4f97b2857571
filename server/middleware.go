package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/automedication-api/handlers"
	"github.com/giygas/automedication-api/logging"
	"github.com/giygas/automedication-api/metrics"
	"github.com/juju/ratelimit"
)

const (
	bucketRate     = 3
	bucketCapacity = 1000
)

// RealIPMiddleware replaces RemoteAddr with the first X-Forwarded-For entry
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			r.RemoteAddr = strings.TrimSpace(first)
		}
		next.ServeHTTP(w, r)
	})
}

// clientHost strips the port from a remote address. Addresses rewritten from
// X-Forwarded-For have none and are returned as is.
func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// BlockDirectAccessMiddleware only lets through requests coming from the
// reverse proxy or from loopback
func BlockDirectAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != "" {
			next.ServeHTTP(w, r)
			return
		}

		host := clientHost(r.RemoteAddr)
		if ip := net.ParseIP(host); host == "localhost" || (ip != nil && ip.IsLoopback()) {
			next.ServeHTTP(w, r)
			return
		}

		logging.Warn("Direct access blocked", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())
		handlers.RespondWithError(w, http.StatusForbidden, "Direct access not allowed")
	})
}

// RequestSizeMiddleware rejects requests whose declared body or headers
// exceed the limits
func RequestSizeMiddleware(maxBody, maxHeader int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBody {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", maxBody,
					"remote_addr", r.RemoteAddr)
				handlers.RespondWithError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", maxBody))
				return
			}

			var headerSize int64
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, v := range values {
					headerSize += int64(len(v))
				}
			}
			if headerSize > maxHeader {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", maxHeader,
					"remote_addr", r.RemoteAddr)
				handlers.RespondWithError(w, http.StatusRequestHeaderFieldsTooLarge,
					fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", maxHeader))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter keeps one token bucket per client address
type RateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
}

// NewRateLimiter creates an empty limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
	}
}

func (rl *RateLimiter) bucket(client string) *ratelimit.Bucket {
	rl.mu.RLock()
	b, ok := rl.clients[client]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.clients[client]; !ok {
		b = ratelimit.NewBucketWithRate(bucketRate, bucketCapacity)
		rl.clients[client] = b
		metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	}
	return b
}

// prune drops the buckets that have refilled completely
func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for client, b := range rl.clients {
		if b.Available() == b.Capacity() {
			delete(rl.clients, client)
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
}

// RunCleanup prunes idle buckets every interval until ctx is done
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

// tokenCost prices a request. Scoring hits the store for tags and the whole
// question bank, search scans the catalog.
func tokenCost(r *http.Request) int64 {
	path := r.URL.Path
	switch {
	case path == "/health" || path == "/metrics":
		return 0
	case path == "/v1/automedication/score":
		return 50
	case path == "/v1/drugs/search":
		return 30
	case strings.HasPrefix(path, "/v1/substances/") && strings.HasSuffix(path, "/questions"):
		return 20
	case strings.HasPrefix(path, "/v1/"):
		return 10
	}
	return 20
}

// Middleware applies the per-client token bucket
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cost := tokenCost(r)
		if cost == 0 {
			next.ServeHTTP(w, r)
			return
		}

		b := rl.bucket(clientHost(r.RemoteAddr))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(bucketCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(bucketRate))

		if b.TakeAvailable(cost) < cost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			handlers.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(b.Available(), 10))
		next.ServeHTTP(w, r)
	})
}

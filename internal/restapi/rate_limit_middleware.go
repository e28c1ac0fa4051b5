package restapi

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	"gpxracer.app/internal/clock"
	"gpxracer.app/internal/models"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleThreshold   = 10 * time.Minute
)

// rateLimitClient tracks the limiter and its last usage time so idle
// clients can be evicted without disturbing active ones.
type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// RateLimitMiddleware limits requests per client address.
type RateLimitMiddleware struct {
	limiters  map[string]*rateLimitClient
	mu        sync.RWMutex
	rateLimit rate.Limit
	burstSize int
	cleanup   clock.Ticker
	stopChan  chan struct{}
	stopOnce  sync.Once
	clock     clock.Clock
}

// NewRateLimitMiddleware allows ratePerInterval requests per interval per
// client, with bursts of the same size. A negative rate disables limiting;
// zero blocks every request.
func NewRateLimitMiddleware(ratePerInterval int, interval time.Duration, c clock.Clock) *RateLimitMiddleware {
	var rateLimit rate.Limit
	switch {
	case ratePerInterval < 0:
		rateLimit = rate.Inf
	case ratePerInterval == 0:
		rateLimit = 0
	default:
		rateLimit = rate.Every(interval / time.Duration(ratePerInterval))
	}
	if c == nil {
		c = clock.RealClock{}
	}

	middleware := &RateLimitMiddleware{
		limiters:  make(map[string]*rateLimitClient),
		rateLimit: rateLimit,
		burstSize: ratePerInterval,
		cleanup:   c.NewTicker(limiterCleanupInterval),
		stopChan:  make(chan struct{}),
		clock:     c,
	}

	go middleware.cleanupLoop()

	return middleware
}

// Handler returns the HTTP middleware function.
func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return rl.rateLimitHandler
}

// getLimiter gets or creates the limiter for key and updates its last
// usage timestamp.
func (rl *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	if client, exists := rl.limiters[key]; exists {
		client.lastSeen.Store(rl.clock.Now().UnixNano())
		rl.mu.RUnlock()
		return client.limiter
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// another goroutine may have created it while we waited
	if client, exists := rl.limiters[key]; exists {
		client.lastSeen.Store(rl.clock.Now().UnixNano())
		return client.limiter
	}

	newClient := &rateLimitClient{
		limiter: rate.NewLimiter(rl.rateLimit, rl.burstSize),
	}
	newClient.lastSeen.Store(rl.clock.Now().UnixNano())
	rl.limiters[key] = newClient

	return newClient.limiter
}

// clientKey identifies the caller by the first X-Forwarded-For hop or the
// remote address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) rateLimitHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.rateLimit == rate.Inf {
			next.ServeHTTP(w, r)
			return
		}

		limiter := rl.getLimiter(clientKey(r))
		if !limiter.AllowN(rl.clock.Now(), 1) {
			rl.sendRateLimitExceeded(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sendRateLimitExceeded sends a 429 Too Many Requests response.
func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	retryAfter := time.Second
	if rl.rateLimit == 0 {
		retryAfter = time.Hour
	} else if every := time.Duration(float64(time.Second) / float64(rl.rateLimit)); every > retryAfter {
		retryAfter = every
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burstSize))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	response := models.ResponseModel{
		Code:        http.StatusTooManyRequests,
		CurrentTime: models.ResponseCurrentTime(rl.clock),
		Text:        "Rate limit exceeded. Please try again later.",
		Version:     2,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode rate limit response", "error", err)
	}
}

// cleanupOnce removes limiters idle for longer than the threshold. It is
// separate from the loop so tests can trigger it synchronously.
func (rl *RateLimitMiddleware) cleanupOnce() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, client := range rl.limiters {
		lastSeenNano := client.lastSeen.Load()
		if lastSeenNano == 0 {
			continue
		}
		if now.Sub(time.Unix(0, lastSeenNano)) > limiterIdleThreshold {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimitMiddleware) cleanupLoop() {
	for {
		select {
		case <-rl.cleanup.C():
			rl.cleanupOnce()
		case <-rl.stopChan:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call multiple times and
// does not affect in-flight requests.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
		rl.cleanup.Stop()
	})
}

func (rl *RateLimitMiddleware) clients() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

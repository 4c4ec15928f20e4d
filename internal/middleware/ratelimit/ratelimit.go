// Package ratelimit implements a fixed-window request limiter keyed by an
// arbitrary client key. The server keys it by resolved user id, so one noisy
// tenant cannot starve the rest.
package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*window
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	totalHits    int64

	requestsPerMinute int
	cleanupInterval   time.Duration
}

type window struct {
	lastRequest time.Time
	requests    int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		clients:           make(map[string]*window),
		stopCleanup:       make(chan struct{}),
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
	go l.runCleanup()
	return l
}

// Allow reports whether a request under key fits in the current one-minute
// window. The window resets a minute after the previous request, not on a
// wall-clock boundary.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	client, ok := l.clients[key]
	if !ok {
		l.clients[key] = &window{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	if client.requests > l.requestsPerMinute {
		atomic.AddInt64(&l.totalHits, 1)
		return false
	}
	return true
}

func (l *Limiter) runCleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropStale()
		case <-l.stopCleanup:
			return
		}
	}
}

// dropStale forgets keys idle for more than ten minutes.
func (l *Limiter) dropStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for key, client := range l.clients {
		if client.lastRequest.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) Stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// Metrics reports how many requests were rejected and how many keys are
// currently tracked.
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	l.mu.Lock()
	clientCount := int64(len(l.clients))
	l.mu.Unlock()

	return Metrics{
		TotalHits:   atomic.LoadInt64(&l.totalHits),
		ClientCount: clientCount,
	}
}

// Middleware rejects over-limit requests before they reach the handler.
// extractKey chooses the bucketing key; onLimit, when set, writes the
// rejection response.
func (l *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractKey(r)) {
				if onLimit != nil {
					onLimit(w, r)
				} else {
					w.Header().Set("Retry-After", "60")
					http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

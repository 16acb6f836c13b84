// FILE: logsproxy/src/internal/ratelimit/limiter.go
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter provides per-client rate limiting keyed by client IP.
type Limiter struct {
	clients         sync.Map // map[string]*clientLimiter
	requestsPerSec  float64
	burstSize       int
	cleanupInterval time.Duration
	done            chan struct{}
	stopOnce        sync.Once

	// Statistics
	allowed atomic.Uint64
	blocked atomic.Uint64
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// New creates a limiter and starts its cleanup routine. Stop must be called
// to release it.
func New(requestsPerSec float64, burstSize int, cleanupInterval time.Duration) *Limiter {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	rl := &Limiter{
		requestsPerSec:  requestsPerSec,
		burstSize:       burstSize,
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow reports whether a request from clientIP may proceed.
func (rl *Limiter) Allow(clientIP string) bool {
	if rl.getLimiter(clientIP).Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.blocked.Add(1)
	return false
}

// getLimiter returns the rate limiter for a client
func (rl *Limiter) getLimiter(clientIP string) *rate.Limiter {
	now := time.Now().UnixNano()
	if val, ok := rl.clients.Load(clientIP); ok {
		client := val.(*clientLimiter)
		client.lastSeen.Store(now)
		return client.limiter
	}

	client := &clientLimiter{
		limiter: rate.NewLimiter(rate.Limit(rl.requestsPerSec), rl.burstSize),
	}
	client.lastSeen.Store(now)

	actual, _ := rl.clients.LoadOrStore(clientIP, client)
	return actual.(*clientLimiter).limiter
}

// cleanup removes old client limiters
func (rl *Limiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.removeIdle(time.Now().Add(-rl.cleanupInterval * 2))
		}
	}
}

// removeIdle drops limiters not seen since threshold
func (rl *Limiter) removeIdle(threshold time.Time) {
	cutoff := threshold.UnixNano()
	rl.clients.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Load() < cutoff {
			rl.clients.Delete(key)
		}
		return true
	})
}

// Stop shuts down the cleanup routine. Safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// GetStats returns limiter statistics.
func (rl *Limiter) GetStats() map[string]any {
	count := 0
	rl.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return map[string]any{
		"active_clients":      count,
		"allowed_requests":    rl.allowed.Load(),
		"blocked_requests":    rl.blocked.Load(),
		"requests_per_second": rl.requestsPerSec,
		"burst_size":          rl.burstSize,
	}
}

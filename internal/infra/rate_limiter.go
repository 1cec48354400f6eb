package infra

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket. The hotpath never blocks on it: an
// exhausted bucket means the command is dropped, not queued, because a
// stale quote command is worthless by the time a token frees up.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a bucket holding burst tokens that refills at
// perSecond.
func NewRateLimiter(burst int, perSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: perSecond,
		lastRefill: time.Now(),
	}
}

// TryAcquire takes a token if one is available. Never blocks.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// Tokens returns the current token count, for diagnostics.
func (r *RateLimiter) Tokens() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// refill credits tokens for elapsed time. Caller holds the mutex.
func (r *RateLimiter) refill() {
	now := time.Now()
	r.tokens += now.Sub(r.lastRefill).Seconds() * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = now
}

// NewOrderLimiter builds the limiter for outbound order commands. The
// venue enforces a per-second message budget and penalizes overruns,
// so commands beyond the budget are dropped at the gateway; the next
// quote recompute re-issues whatever still matters.
func NewOrderLimiter(burst int, perSecond float64) *RateLimiter {
	return NewRateLimiter(burst, perSecond)
}

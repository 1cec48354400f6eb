package infra

import (
	"log/slog"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // commands flow
	BreakerOpen                         // commands rejected
	BreakerHalfOpen                     // probing recovery
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerOpen:
		return "OPEN"
	case BreakerHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker trips the outbound command path when the venue
// session keeps failing writes, so the engine stops burning its rate
// budget on a dead pipe. A rejected command is not retried; the next
// quote recompute re-issues whatever still matters. Safe for
// concurrent use.
type CircuitBreaker struct {
	name string
	mu   sync.RWMutex

	state       BreakerState
	failures    int
	probeWins   int
	lastFailure time.Time

	failureThreshold int
	successThreshold int
	cooldown         time.Duration
}

// CircuitBreakerConfig configures a breaker.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

// DefaultCircuitBreakerConfig returns the order-pipe tuning. The
// cooldown is short: an open breaker suppresses quoting, and five
// seconds of silence is already a long time in a live book.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         5 * time.Second,
	}
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:             cfg.Name,
		state:            BreakerClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		cooldown:         cfg.Cooldown,
	}
}

// Allow reports whether a command may be sent. While open, the first
// call after the cooldown flips the breaker to half-open and is let
// through as a probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true

	case BreakerOpen:
		if time.Since(cb.lastFailure) > cb.cooldown {
			cb.state = BreakerHalfOpen
			cb.probeWins = 0
			slog.Info("breaker half-open, probing venue session", slog.String("name", cb.name))
			return true
		}
		return false

	case BreakerHalfOpen:
		return true

	default:
		return false
	}
}

// RecordSuccess notes a successful write. Enough successes in
// half-open close the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failures = 0

	case BreakerHalfOpen:
		cb.probeWins++
		if cb.probeWins >= cb.successThreshold {
			cb.state = BreakerClosed
			cb.failures = 0
			cb.probeWins = 0
			slog.Info("breaker closed, venue session recovered", slog.String("name", cb.name))
		}
	}
}

// RecordFailure notes a failed write. Crossing the failure threshold,
// or any failure while half-open, opens the breaker.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()

	switch cb.state {
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.state = BreakerOpen
			slog.Warn("breaker open, suppressing venue commands",
				slog.String("name", cb.name),
				slog.Int("failures", cb.failures))
		}

	case BreakerHalfOpen:
		cb.state = BreakerOpen
		cb.probeWins = 0
		slog.Warn("breaker reopened, probe failed", slog.String("name", cb.name))
	}
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() BreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = BreakerClosed
	cb.failures = 0
	cb.probeWins = 0
	slog.Info("breaker reset", slog.String("name", cb.name))
}

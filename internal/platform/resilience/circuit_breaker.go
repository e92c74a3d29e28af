package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while the breaker refuses traffic.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards the PandaScore HTTP client. A streak of transport
// or 5xx failures trips it open so a provider outage does not burn the
// hourly request quota on calls that cannot succeed. After the open
// timeout a bounded number of probe requests decide whether to close.
//
// Rate-limit pauses are handled separately by PauseGate; a 429 never
// counts as a breaker failure.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int

	state         CircuitState
	failureStreak int
	trippedAt     time.Time
	probesActive  int
	probesPassed  int

	now func() time.Time
}

// NewCircuitBreaker builds a closed breaker. Out-of-range arguments fall
// back to the provider defaults from DefaultCircuitBreakerConfig.
func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if failureThreshold < 1 {
		failureThreshold = defaults.FailureThreshold
	}
	if openTimeout <= 0 {
		openTimeout = defaults.OpenTimeout
	}
	if halfOpenMaxReq < 1 {
		halfOpenMaxReq = defaults.HalfOpenMaxReq
	}

	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
		halfOpenMaxReq:   halfOpenMaxReq,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a request may proceed. The open timeout elapsing
// moves the breaker to half-open, where at most halfOpenMaxReq probes
// run concurrently.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.trippedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.transition(CircuitStateHalfOpen)
	}

	if b.state == CircuitStateHalfOpen {
		if b.probesActive >= b.halfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.probesActive++
	}

	return nil
}

// RecordSuccess clears the failure streak, and closes a half-open
// breaker once every probe has come back clean.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failureStreak = 0
	case CircuitStateHalfOpen:
		if b.probesActive > 0 {
			b.probesActive--
		}
		b.probesPassed++
		if b.probesPassed >= b.halfOpenMaxReq && b.probesActive == 0 {
			b.transition(CircuitStateClosed)
		}
	}
}

// RecordFailure extends the streak. Reaching the threshold, or any
// failed half-open probe, trips the breaker; failures observed while
// already open push the reopen deadline out.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failureStreak++
		if b.failureStreak >= b.failureThreshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		if b.probesActive > 0 {
			b.probesActive--
		}
		b.transition(CircuitStateOpen)
	case CircuitStateOpen:
		b.trippedAt = b.now()
	}
}

// State reports open breakers whose timeout has elapsed as half-open,
// matching what the next Allow call would see.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.trippedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) transition(next CircuitState) {
	b.state = next
	b.probesActive = 0
	b.probesPassed = 0

	switch next {
	case CircuitStateClosed:
		b.failureStreak = 0
		b.trippedAt = time.Time{}
	case CircuitStateOpen:
		b.trippedAt = b.now()
	}
}

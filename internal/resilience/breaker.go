// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the circuit breaker is open and rejecting calls.
var ErrOpen = errors.New("circuit open")

// Breaker protects the CRM endpoints from being hammered while they are
// down. After maxFailures consecutive failures the circuit opens for the
// cooldown period; the first call after the cooldown is a probe, and only
// one probe may be in flight at a time.
type Breaker struct {
	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration

	failures  int
	openUntil time.Time
	probing   bool

	clock func() time.Time // for testing
}

// NewBreaker creates a circuit breaker that opens after maxFailures
// consecutive failures and cools down for the given duration.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		clock:       time.Now,
	}
}

// Do runs fn unless the circuit is open. While open, calls fail fast with
// ErrOpen until the cooldown elapses; then a single probe call is let
// through, and its outcome closes or re-opens the circuit.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	callErr := fn()
	b.settle(probe, callErr)
	return callErr
}

// admit decides whether a call may proceed and whether it is a probe.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.maxFailures {
		return false, nil
	}
	if b.clock().Before(b.openUntil) {
		return false, ErrOpen
	}
	if b.probing {
		return false, ErrOpen
	}
	b.probing = true
	return true, nil
}

// settle records the call outcome.
func (b *Breaker) settle(probe bool, callErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probing = false
	}

	if callErr == nil {
		b.failures = 0
		return
	}

	b.failures++
	if b.failures >= b.maxFailures {
		b.openUntil = b.clock().Add(b.cooldown)
	}
}

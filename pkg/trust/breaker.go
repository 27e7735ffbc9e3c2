package trust

import "sync"

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// CircuitBreaker guards outbound identity-registry fetches (spec.md
// §4.10): it opens after failureThreshold failures within failureWindow,
// then stays open for openDuration before allowing a single half-open
// probe. Safe for concurrent use.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	windowNs         int64
	openNs           int64

	state    breakerState
	failures []int64 // unix-nano timestamps within the failure window
	openedAt int64
}

// NewCircuitBreaker builds a breaker with the given failure threshold
// and durations expressed in nanoseconds, matching spec defaults of 5
// failures in 30s and a 30s open period when called with (5, 30e9, 30e9).
func NewCircuitBreaker(failureThreshold int, failureWindowNs, openDurationNs int64) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if failureWindowNs <= 0 {
		failureWindowNs = int64(30e9)
	}
	if openDurationNs <= 0 {
		openDurationNs = int64(30e9)
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		windowNs:         failureWindowNs,
		openNs:           openDurationNs,
	}
}

// Allow reports whether a call may proceed at time nowNs (unix nanos).
// When the breaker is open past its open duration it transitions to
// half-open and allows exactly the call that observes the transition.
func (b *CircuitBreaker) Allow(nowNs int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if nowNs-b.openedAt >= b.openNs {
			b.state = breakerHalfOpen
			return true
		}
		return false
	case breakerHalfOpen:
		return false
	default:
		return true
	}
}

// RecordSuccess reports a successful call, closing the breaker if it
// was half-open.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = breakerClosed
	b.failures = nil
}

// RecordFailure reports a failed call at nowNs. A failure while
// half-open reopens the breaker immediately; otherwise failures are
// pruned to the trailing window and counted toward the threshold.
func (b *CircuitBreaker) RecordFailure(nowNs int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.state = breakerOpen
		b.openedAt = nowNs
		b.failures = nil
		return
	}

	cutoff := nowNs - b.windowNs
	kept := b.failures[:0]
	for _, ts := range b.failures {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	b.failures = append(kept, nowNs)

	if len(b.failures) >= b.failureThreshold {
		b.state = breakerOpen
		b.openedAt = nowNs
		b.failures = nil
	}
}

package amqp

import (
	"sync"
	"sync/atomic"
	"time"
)

// Circuit breaker states for the publisher.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
)

// breaker stops publish attempts after repeated failures so a dead broker
// does not add the publish timeout to every write request.
type breaker struct {
	failureCount int64
	state        int32

	mu          sync.Mutex
	lastFailure time.Time
}

// isCircuitOpen reports whether publishing should be skipped. An open
// circuit moves to half-open once openTimeout has passed.
func (b *breaker) isCircuitOpen() bool {
	if atomic.LoadInt32(&b.state) != StateOpen {
		return false
	}
	b.mu.Lock()
	last := b.lastFailure
	b.mu.Unlock()

	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&b.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (b *breaker) recordSuccess() {
	atomic.StoreInt64(&b.failureCount, 0)
	atomic.StoreInt32(&b.state, StateClosed)
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	b.lastFailure = time.Now()
	b.mu.Unlock()

	if atomic.LoadInt32(&b.state) == StateHalfOpen ||
		atomic.AddInt64(&b.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&b.state, StateOpen)
	}
}

package browser

import (
	"context"
	"errors"
	"time"
)

// ErrPoolExhausted is returned when no session slot frees up within the
// acquire timeout. Callers classify it as a fetch failure.
var ErrPoolExhausted = errors.New("browser: session pool exhausted")

// Pool caps the number of concurrently open browser sessions. Acquisition is
// first-come-first-served through a buffered channel and waits at most
// acquireTimeout before giving up. Sessions themselves are never reused; the
// pool only bounds how many exist at once.
type Pool struct {
	slots          chan struct{}
	acquireTimeout time.Duration
}

// NewPool builds a pool with the given capacity. A non-positive capacity is
// treated as 1.
func NewPool(capacity int, acquireTimeout time.Duration) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		slots:          make(chan struct{}, capacity),
		acquireTimeout: acquireTimeout,
	}
}

// Acquire blocks until a slot is free, the acquire timeout fires, or the
// context is done. On success the caller owns one slot and must Release it.
func (p *Pool) Acquire(ctx context.Context) error {
	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case p.slots <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrPoolExhausted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot to the pool.
func (p *Pool) Release() {
	select {
	case <-p.slots:
	default:
	}
}

// InUse reports how many slots are currently held.
func (p *Pool) InUse() int {
	return len(p.slots)
}

package concurrency

import (
	"context"
)

// Acquire attempts to acquire one permit without blocking.
func (cl *concurrencyLimiter) Acquire() bool {
	return cl.AcquireN(1)
}

// AcquireN attempts to acquire n permits without blocking.
func (cl *concurrencyLimiter) AcquireN(n int) bool {
	if n <= 0 {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.available >= n {
		cl.take(n)
		return true
	}
	return false
}

// Wait blocks until one permit is available.
func (cl *concurrencyLimiter) Wait(ctx context.Context) error {
	return cl.WaitN(ctx, 1)
}

// WaitN blocks until n permits are available.
func (cl *concurrencyLimiter) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cl.mu.Lock()
	if n > cl.capacity {
		cl.mu.Unlock()
		return errCapacity(n, cl.capacity)
	}

	// Fast path only when nobody is queued ahead of us
	if len(cl.waiters) == 0 && cl.available >= n {
		cl.take(n)
		cl.mu.Unlock()
		return nil
	}

	w := &waiter{n: n, ready: make(chan struct{})}
	cl.waiters = append(cl.waiters, w)
	cl.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		cl.mu.Lock()
		granted := !cl.removeWaiter(w)
		if granted {
			// Permits were handed over concurrently with cancellation.
			cl.give(n)
		}
		cl.mu.Unlock()
		return ctx.Err()
	}
}

// Release releases one permit back to the limiter.
func (cl *concurrencyLimiter) Release() {
	cl.ReleaseN(1)
}

// ReleaseN releases n permits back to the limiter.
func (cl *concurrencyLimiter) ReleaseN(n int) {
	if n <= 0 {
		return
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.inUse < n {
		panic("concurrency: released more permits than acquired")
	}
	cl.give(n)
}

// Capacity returns the maximum number of concurrent operations allowed.
func (cl *concurrencyLimiter) Capacity() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.capacity
}

// Available returns the number of permits currently available.
func (cl *concurrencyLimiter) Available() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.available
}

// InUse returns the number of permits currently in use.
func (cl *concurrencyLimiter) InUse() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.inUse
}

// Waiting returns the number of queued waiters.
func (cl *concurrencyLimiter) Waiting() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.waiters)
}

// take moves n permits from available to in use. Must be called with cl.mu held.
func (cl *concurrencyLimiter) take(n int) {
	cl.available -= n
	cl.inUse += n
}

// give returns n permits and hands them to queued waiters in order.
// Must be called with cl.mu held.
func (cl *concurrencyLimiter) give(n int) {
	cl.available += n
	cl.inUse -= n

	for len(cl.waiters) > 0 {
		w := cl.waiters[0]
		if cl.available < w.n {
			return
		}
		cl.take(w.n)
		cl.waiters[0] = nil
		cl.waiters = cl.waiters[1:]
		close(w.ready)
	}
}

// removeWaiter drops w from the queue and reports whether it was still queued.
// Must be called with cl.mu held.
func (cl *concurrencyLimiter) removeWaiter(w *waiter) bool {
	for i, q := range cl.waiters {
		if q == w {
			cl.waiters = append(cl.waiters[:i], cl.waiters[i+1:]...)
			// The head may now be satisfiable.
			if i == 0 {
				cl.give(0)
			}
			return true
		}
	}
	return false
}

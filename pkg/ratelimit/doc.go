/*
Package ratelimit provides rate limiting primitives for Go applications.

This package offers two limiters:

  - qps: Token bucket limiter bounding how often work starts and how much of
    it runs at once
  - concurrency: Concurrency limiter for controlling goroutine usage

The qps limiter refills one token every 1/rate seconds in the background and
runs admitted work on a worker pool:

	limiter := qps.New(10) // 10 tokens/sec
	defer limiter.Shutdown(context.Background())

	err := limiter.Submit(ctx, func(ctx context.Context) error {
		return callUpstream(ctx)
	})

The concurrency limiter is a semaphore with FIFO hand-off and is what the qps
limiter uses as its admission gate:

	gate := concurrency.New(4)
	if err := gate.Wait(ctx); err == nil {
		defer gate.Release()
		// at most 4 goroutines here
	}

All limiters are safe for concurrent use and integrate with
the context package for cancellation and timeouts.
*/
package ratelimit

/*
Package qps provides a limiter that bounds both the start rate and the
concurrency of submitted work.

A background goroutine adds one token every 1/rate seconds, up to the bucket
capacity. Each call to Submit first waits for one of MaxConcurrency admission
slots, then for a token, then runs the work on a worker pool owned by the
limiter and returns the work's error once it has finished. A caller holds its
slot until its work completes, so at most MaxConcurrency work items are in
flight at any time.

Basic usage:

	limiter := qps.New(10) // 10 starts per second
	defer limiter.Shutdown(context.Background())

	err := limiter.Submit(ctx, func(ctx context.Context) error {
		return callUpstream(ctx)
	})

Typed results:

	body, err := qps.Do(ctx, limiter, func(ctx context.Context) ([]byte, error) {
		return fetch(ctx, url)
	})

The context passed to Submit bounds only the waiting. Once a token has been
consumed the work runs to completion even if the caller's context ends.

Shutdown stops the refill goroutine, rejects new work with ErrShutdown, wakes
every waiting caller with ErrShutdown and waits for in-flight work to finish.

Errors returned by work are wrapped in *WorkError, which matches both
ErrWorkFailed and the original error under errors.Is. A panic in work is
recovered and reported the same way.

Configuration can be loaded from YAML with LoadConfig, and a Reporter logs
the observed throughput on a cron schedule. NewWithMetrics and
NewWithConfigAndMetrics export Prometheus metrics for admissions, waits and
work outcomes.
*/
package qps

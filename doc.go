/*
Package qpsflow provides a Go library for running work at a bounded rate and
bounded concurrency.

Rate Limiting (pkg/ratelimit):
  - qps: Token bucket limiter with background refill that runs admitted work
    on its own worker pool
  - concurrency: Control concurrent operations

Task Scheduling (pkg/scheduling):
  - workerpool: Lazily started, bounded pool of workers

Utilities:
  - chunk: Split a slice into near-equal parts for fan-out
  - metrics: Prometheus collectors shared by all components

Example usage:

	import (
		"github.com/vnykmshr/qpsflow/pkg/chunk"
		"github.com/vnykmshr/qpsflow/pkg/ratelimit/qps"
	)

	limiter := qps.New(10) // 10 starts per second
	defer limiter.Shutdown(ctx)

	parts, _ := chunk.Chunk(urls, chunk.Options{NChunks: 4})
	for _, part := range parts {
		go func() {
			for _, url := range part {
				_ = limiter.Submit(ctx, func(ctx context.Context) error {
					return fetch(ctx, url)
				})
			}
		}()
	}
*/
package qpsflow

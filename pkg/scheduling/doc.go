/*
Package scheduling provides task execution primitives for Go applications.

  - workerpool: Bounded worker pool for concurrent task execution

Worker Pool:

The worker pool starts workers on demand up to its size and reuses idle ones:

	pool := workerpool.New(4) // at most 4 workers
	defer func() { <-pool.Shutdown() }()

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	})

	if err := pool.Submit(ctx, task); err != nil {
		// pool is shut down or ctx ended before a worker took the task
	}

Periodic work is scheduled with github.com/robfig/cron/v3; see qps.Reporter.

All scheduling components are thread-safe and integrate with context
for cancellation and timeout handling.
*/
package scheduling

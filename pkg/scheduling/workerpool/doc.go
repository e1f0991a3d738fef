/*
Package workerpool provides a bounded pool of worker goroutines.

Workers are started on demand: a task submitted while every existing worker is
busy starts a new worker, until Size workers exist. After that, Submit blocks
until a worker is free. Idle workers stay parked until Shutdown.

Basic usage:

	pool := workerpool.New(8)
	defer func() { <-pool.Shutdown() }()

	done := make(chan error, 1)
	err := pool.Submit(ctx, workerpool.TaskFunc(func(ctx context.Context) error {
		done <- fetch(ctx)
		return nil
	}))

Tasks report their own outcome; the pool only reports whether the task was
handed to a worker. Panics inside a task are recovered, logged and passed to
Config.OnTaskComplete as an error.
*/
package workerpool

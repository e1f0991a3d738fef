/*
Package concurrency provides a counting semaphore used to bound how many
operations are in progress at once.

The qps limiter uses it as its admission gate: a caller holds one permit from
the moment it starts competing for a token until its work finishes.

Basic usage:

	gate, err := concurrency.NewSafe(10)
	if err != nil {
		log.Fatal(err)
	}

	if err := gate.Wait(ctx); err != nil {
		return err // ctx canceled while waiting
	}
	defer gate.Release()

Waiters are served in arrival order whenever enough permits are free, but a
non-blocking Acquire may take a permit ahead of them. Canceled waiters are
removed without consuming permits.
*/
package concurrency

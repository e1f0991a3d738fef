package qps

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
	"github.com/vnykmshr/qpsflow/pkg/scheduling/workerpool"
)

// Submit waits for a slot and a token, then runs work on the worker pool.
func (tb *tokenBucket) Submit(ctx context.Context, work Work) error {
	if work == nil {
		return fmt.Errorf("qps: work cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !tb.Running() {
		return ErrShutdown
	}

	waitCtx, cancel := tb.waitContext(ctx)
	defer cancel()

	// The slot is taken first so at most MaxConcurrency callers compete for tokens.
	if err := tb.gate.Wait(waitCtx); err != nil {
		return tb.waitError(ctx, err)
	}
	defer tb.gate.Release()

	if err := tb.takeToken(waitCtx); err != nil {
		return tb.waitError(ctx, err)
	}
	defer tb.finish()

	return tb.dispatch(ctx, work)
}

// Do submits fn to l and returns its value.
func Do[T any](ctx context.Context, l Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := l.Submit(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// waitContext derives a context that is also canceled by Shutdown.
func (tb *tokenBucket) waitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	waitCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(tb.lifetime, cancel)
	return waitCtx, func() {
		stop()
		cancel()
	}
}

// waitError reports ErrShutdown when the wait ended because of Shutdown.
func (tb *tokenBucket) waitError(ctx context.Context, err error) error {
	if tb.lifetime.Err() != nil {
		return ErrShutdown
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// takeToken blocks until a token is consumed. The decrement, the completed
// count and in-flight registration happen in one critical section.
func (tb *tokenBucket) takeToken(ctx context.Context) error {
	for {
		tb.mu.Lock()
		if !tb.running {
			tb.mu.Unlock()
			return ErrShutdown
		}
		if tb.tokens > 0 {
			tb.tokens--
			tb.completed++
			tb.inFlight++
			tb.active.Add(1)
			tb.mu.Unlock()
			return nil
		}
		refilled := tb.refilled
		tb.mu.Unlock()

		// Every waiter wakes on a refill; whoever locks first wins the token.
		select {
		case <-refilled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (tb *tokenBucket) finish() {
	tb.mu.Lock()
	tb.inFlight--
	tb.mu.Unlock()
	tb.active.Done()
}

// dispatch runs work on the pool and waits for it.
func (tb *tokenBucket) dispatch(ctx context.Context, work Work) error {
	done := make(chan error, 1)
	task := workerpool.TaskFunc(func(taskCtx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("work panicked: %v\nStack trace:\n%s", r, debug.Stack())
				tb.logger.Error("recovered panic in submitted work",
					zap.String("name", tb.name),
					zap.Any("panic", r))
			}
			done <- err
		}()
		return work(taskCtx)
	})

	// Admitted work is not abandoned when the caller's context ends.
	if err := tb.pool.Submit(context.WithoutCancel(ctx), task); err != nil {
		return gferrors.NewOperationError("qps", "Submit", err).
			WithContext("dispatch to worker pool")
	}

	if err := <-done; err != nil {
		tb.logger.Debug("submitted work failed",
			zap.String("name", tb.name),
			zap.Error(err))
		return &WorkError{Cause: err}
	}
	return nil
}

// refill adds one token per interval until shutdown. Wake-ups follow an
// absolute schedule so per-cycle overhead does not lower the long-run rate.
func (tb *tokenBucket) refill() {
	defer close(tb.refillDone)

	// Catching up further than a full bucket cannot add more tokens.
	maxLag := time.Duration(-1)
	if slots := time.Duration(tb.capacity) + 1; tb.interval <= time.Duration(1<<62)/slots {
		maxLag = tb.interval * slots
	}

	next := time.Now().Add(tb.interval)
	timer := time.NewTimer(tb.interval)
	defer timer.Stop()

	for {
		select {
		case <-tb.lifetime.Done():
			return
		case <-timer.C:
		}

		tb.addToken()

		now := time.Now()
		next = next.Add(tb.interval)
		if maxLag >= 0 && now.Sub(next) > maxLag {
			next = now.Add(tb.interval)
		}
		timer.Reset(max(next.Sub(now), 0))
	}
}

// addToken adds one token unless the bucket is full or shut down.
func (tb *tokenBucket) addToken() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if !tb.running || tb.tokens >= tb.capacity {
		return
	}
	tb.tokens++
	close(tb.refilled)
	tb.refilled = make(chan struct{})
}

// RealQPS returns completed / elapsed seconds.
func (tb *tokenBucket) RealQPS() (float64, error) {
	tb.mu.Lock()
	completed := tb.completed
	start, end := tb.startTime, tb.endTime
	tb.mu.Unlock()

	if end.IsZero() {
		end = tb.clock.Now()
	}
	elapsed := end.Sub(start).Seconds()
	if elapsed <= 0 {
		return 0, ErrUndefinedQPS
	}
	return float64(completed) / elapsed, nil
}

// Shutdown stops the limiter. Only the first call has an effect.
func (tb *tokenBucket) Shutdown(ctx context.Context) error {
	first := false
	tb.shutdownOnce.Do(func() { first = true })
	if !first {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tb.mu.Lock()
	tb.running = false
	tb.mu.Unlock()

	// Wakes token and slot waiters and the refill goroutine.
	tb.stop()
	<-tb.refillDone

	tb.mu.Lock()
	tb.endTime = tb.clock.Now()
	inFlight := tb.inFlight
	tb.mu.Unlock()

	realQPS, _ := tb.RealQPS()
	tb.logger.Info("qps limiter shutting down",
		zap.String("name", tb.name),
		zap.Int64("completed", tb.Completed()),
		zap.Int("in_flight", inFlight),
		zap.Float64("real_qps", realQPS))

	drained := make(chan struct{})
	go func() {
		tb.active.Wait()
		<-tb.pool.Shutdown()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("qps: waiting for in-flight work: %w", ctx.Err())
	}
}

// Name returns the limiter name.
func (tb *tokenBucket) Name() string {
	return tb.name
}

// Rate returns the refill rate in tokens per second.
func (tb *tokenBucket) Rate() float64 {
	return tb.rate
}

// Capacity returns the maximum number of stored tokens.
func (tb *tokenBucket) Capacity() int {
	return tb.capacity
}

// MaxConcurrency returns the admission bound.
func (tb *tokenBucket) MaxConcurrency() int {
	return tb.maxConcurrency
}

// Tokens returns the number of tokens currently available.
func (tb *tokenBucket) Tokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tokens
}

// InFlight returns the number of admitted, unfinished work items.
func (tb *tokenBucket) InFlight() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.inFlight
}

// Completed returns the number of admitted work items.
func (tb *tokenBucket) Completed() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.completed
}

// Running reports whether the limiter accepts new work.
func (tb *tokenBucket) Running() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.running
}

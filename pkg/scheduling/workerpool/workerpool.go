package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
)

// Submit hands task to a worker.
func (p *workerPool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cannot submit task: context canceled: %w", err)
	}

	twc := taskWithContext{task: task, ctx: ctx}

	p.mu.Lock()
	if p.isShutdown {
		p.mu.Unlock()
		return fmt.Errorf("cannot submit task: %w", gferrors.ErrClosed)
	}
	if p.idle > 0 {
		// Claim an idle worker; it is parked on p.tasks.
		p.idle--
		twc.claimed = true
	} else if p.workers < p.config.WorkerCount {
		id := p.workers
		p.workers++
		p.workerWg.Add(1)
		p.mu.Unlock()

		p.totalSubmitted.Add(1)
		go p.runWorker(id, twc)
		return nil
	}
	p.mu.Unlock()

	select {
	case p.tasks <- twc:
		p.totalSubmitted.Add(1)
		return nil
	case <-p.shutdownCh:
		return fmt.Errorf("cannot submit task: %w", gferrors.ErrClosed)
	case <-ctx.Done():
		if twc.claimed {
			p.mu.Lock()
			p.idle++
			p.mu.Unlock()
		}
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	}
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()

		close(p.shutdownCh)

		go func() {
			p.workerWg.Wait()
			close(p.done)
		}()
	})
	return p.done
}

// Size returns the maximum number of workers.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// Workers returns the number of started workers.
func (p *workerPool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// ActiveWorkers returns the number of workers executing a task.
func (p *workerPool) ActiveWorkers() int {
	return int(p.active.Load())
}

// TotalSubmitted returns the total number of tasks handed to workers.
func (p *workerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of finished tasks.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// runWorker executes first, then serves p.tasks until shutdown.
func (p *workerPool) runWorker(id int, first taskWithContext) {
	defer p.workerWg.Done()

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(id)
	}
	if p.config.OnWorkerStop != nil {
		defer p.config.OnWorkerStop(id)
	}

	p.execute(id, first)

	for {
		p.mu.Lock()
		p.idle++
		p.mu.Unlock()

		select {
		case twc := <-p.tasks:
			if !twc.claimed {
				p.mu.Lock()
				p.idle--
				p.mu.Unlock()
			}
			p.execute(id, twc)
		case <-p.shutdownCh:
			p.mu.Lock()
			p.idle--
			p.mu.Unlock()
			return
		}
	}
}

// execute runs a single task, recovering panics.
func (p *workerPool) execute(id int, twc taskWithContext) {
	start := time.Now()
	p.active.Add(1)

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
			p.logger.Error("recovered task panic",
				zap.Int("worker_id", id),
				zap.Any("panic", r))
		}

		p.active.Add(-1)
		p.totalCompleted.Add(1)

		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(id, Result{
				Task:     twc.task,
				Error:    err,
				Duration: time.Since(start),
				WorkerID: id,
			})
		}
	}()

	err = twc.task.Execute(twc.ctx)
}

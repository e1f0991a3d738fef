package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/qpsflow/pkg/common/validation"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result describes a finished task.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error returned by the task, or the recovered panic
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool executes tasks on a bounded set of workers.
type Pool interface {
	// Submit hands task to a worker, starting one if the pool is below Size.
	// It blocks while all Size workers are busy. ctx bounds the hand-off only;
	// it is also passed to Task.Execute.
	Submit(ctx context.Context, task Task) error

	// Shutdown stops accepting tasks and stops workers once they are idle.
	// The returned channel closes when every worker has exited.
	Shutdown() <-chan struct{}

	// Size returns the maximum number of workers.
	Size() int

	// Workers returns the number of workers started so far.
	Workers() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks handed to workers.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks that finished.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the maximum number of workers. Must be greater than 0.
	WorkerCount int

	// Logger receives recovered task panics. Defaults to a no-op logger.
	Logger *zap.Logger

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskComplete is called after a task completes (success, failure or panic).
	OnTaskComplete func(workerID int, result Result)
}

type taskWithContext struct {
	task Task
	ctx  context.Context

	// claimed is set when the submitter already reserved an idle worker.
	claimed bool
}

type workerPool struct {
	config Config
	logger *zap.Logger

	tasks        chan taskWithContext
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	mu         sync.Mutex
	isShutdown bool
	workers    int
	idle       int

	active         atomic.Int64
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64

	workerWg sync.WaitGroup
}

// New creates a worker pool with at most workerCount workers.
// It panics if workerCount is not positive.
func New(workerCount int) Pool {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a worker pool and panics on invalid configuration.
func NewWithConfig(config Config) Pool {
	p, err := NewWithConfigSafe(config)
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfigSafe creates a worker pool, returning a ValidationError on invalid configuration.
func NewWithConfigSafe(config Config) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "worker_count", config.WorkerCount); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &workerPool{
		config:     config,
		logger:     logger,
		tasks:      make(chan taskWithContext),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

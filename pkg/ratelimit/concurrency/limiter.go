package concurrency

import (
	"context"
	"sync"

	"github.com/vnykmshr/qpsflow/pkg/common/validation"
)

// Limiter controls the number of concurrent operations that can happen
// at any given time.
type Limiter interface {
	// Acquire attempts to acquire a permit without blocking.
	Acquire() bool

	// AcquireN attempts to acquire n permits without blocking.
	AcquireN(n int) bool

	// Wait blocks until a permit is available or ctx is done.
	Wait(ctx context.Context) error

	// WaitN blocks until n permits are available or ctx is done.
	// On error no permits are held.
	WaitN(ctx context.Context, n int) error

	// Release releases one permit back to the limiter.
	// It panics if more permits are released than were acquired.
	Release()

	// ReleaseN releases n permits back to the limiter.
	// It panics if more permits are released than were acquired.
	ReleaseN(n int)

	// Capacity returns the maximum number of concurrent operations allowed.
	Capacity() int

	// Available returns the number of permits currently available.
	Available() int

	// InUse returns the number of permits currently in use.
	InUse() int

	// Waiting returns the number of callers blocked in Wait/WaitN.
	Waiting() int
}

// Config holds configuration options for creating a new concurrency Limiter.
type Config struct {
	// Capacity is the maximum number of concurrent operations allowed.
	Capacity int

	// InitialAvailable is the initial number of available permits.
	// If negative or greater than Capacity, defaults to Capacity.
	InitialAvailable int
}

type concurrencyLimiter struct {
	mu        sync.Mutex
	capacity  int
	available int
	inUse     int
	waiters   []*waiter
}

type waiter struct {
	n     int
	ready chan struct{}
}

// New creates a concurrency limiter and panics on invalid capacity.
func New(capacity int) Limiter {
	l, err := NewSafe(capacity)
	if err != nil {
		panic(err)
	}
	return l
}

// NewSafe creates a new concurrency limiter with validation that returns an error instead of panicking.
func NewSafe(capacity int) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Capacity:         capacity,
		InitialAvailable: -1,
	})
}

// NewWithConfigSafe creates a new concurrency limiter with validation that returns an error instead of panicking.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidatePositive("concurrency", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	initialAvailable := config.InitialAvailable
	if initialAvailable < 0 || initialAvailable > config.Capacity {
		initialAvailable = config.Capacity
	}

	return &concurrencyLimiter{
		capacity:  config.Capacity,
		available: initialAvailable,
		inUse:     config.Capacity - initialAvailable,
	}, nil
}

package qps

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnykmshr/qpsflow/pkg/common/validation"
	"github.com/vnykmshr/qpsflow/pkg/metrics"
	"github.com/vnykmshr/qpsflow/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/qpsflow/pkg/scheduling/workerpool"
)

// defaultMultiplier scales the rate into the default capacity and concurrency bound.
const defaultMultiplier = 100

// Work is a unit of computation submitted to a Limiter. The context carries
// the values of the one given to Submit but is never canceled, since admitted
// work always runs to completion.
type Work func(ctx context.Context) error

// Limiter bounds how often work starts (rate) and how much of it runs at once
// (max concurrency). Admitted work runs on a worker pool owned by the limiter.
type Limiter interface {
	// Submit waits for an admission slot and a token, runs work on the
	// worker pool and returns once it has finished.
	//
	// ctx only bounds the waiting; admitted work always runs to completion.
	// Errors from work are returned as *WorkError. Submit returns ErrShutdown
	// if the limiter is, or becomes while waiting, shut down.
	Submit(ctx context.Context, work Work) error

	// RealQPS returns admissions per second since construction, measured up to
	// now or to shutdown. It returns ErrUndefinedQPS if no time has elapsed.
	RealQPS() (float64, error)

	// Shutdown stops refilling, rejects new work and waits for in-flight work
	// to finish or ctx to be done. Calls after the first are no-ops.
	Shutdown(ctx context.Context) error

	// Name returns the limiter name used in logs and metrics.
	Name() string

	// Rate returns the number of tokens added per second.
	Rate() float64

	// Capacity returns the maximum number of stored tokens.
	Capacity() int

	// MaxConcurrency returns the admission bound.
	MaxConcurrency() int

	// Tokens returns the number of tokens currently available.
	Tokens() int

	// InFlight returns the number of admitted work items not yet finished.
	InFlight() int

	// Completed returns the number of work items that consumed a token.
	Completed() int64

	// Running reports whether the limiter accepts new work.
	Running() bool
}

// Clock provides the current time for throughput accounting.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Rate is the number of tokens added per second. Must be positive.
	Rate float64

	// Capacity is the maximum number of stored tokens.
	// Nil selects Rate*100; negative values are rejected.
	Capacity *int

	// MaxConcurrency bounds admitted-but-unfinished work and sizes the worker pool.
	// Nil selects Rate*100; values below 1 are rejected.
	MaxConcurrency *int

	// InitialTokens is the number of tokens at start, within [0, Capacity].
	InitialTokens int

	// Name labels logs and metrics. Defaults to a random UUID.
	Name string

	// Clock is used for RealQPS accounting. If nil, SystemClock is used.
	// Refill timing always follows the system clock.
	Clock Clock

	// Logger receives lifecycle and failure logs. Defaults to a no-op logger.
	Logger *zap.Logger
}

// tokenBucket implements Limiter with a background refill goroutine.
type tokenBucket struct {
	name           string
	rate           float64
	interval       time.Duration
	capacity       int
	maxConcurrency int
	clock          Clock
	logger         *zap.Logger

	gate concurrency.Limiter
	pool workerpool.Pool

	mu        sync.Mutex
	tokens    int
	completed int64
	inFlight  int
	running   bool
	refilled  chan struct{} // closed and replaced whenever a token is added
	startTime time.Time
	endTime   time.Time

	lifetime     context.Context
	stop         context.CancelFunc
	refillDone   chan struct{}
	active       sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates a limiter with default capacity and concurrency.
// It panics if rate is not positive.
func New(rate float64) Limiter {
	l, err := NewSafe(rate)
	if err != nil {
		panic(err)
	}
	return l
}

// NewSafe creates a limiter with default capacity and concurrency, returning
// a ValidationError instead of panicking.
func NewSafe(rate float64) (Limiter, error) {
	return NewWithConfigSafe(Config{Rate: rate})
}

// NewWithConfigSafe creates a limiter from config. Nothing is started when
// validation fails.
func NewWithConfigSafe(config Config) (Limiter, error) {
	return newTokenBucket(config, metrics.Config{})
}

func newTokenBucket(config Config, metricsConfig metrics.Config) (*tokenBucket, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	var gate concurrency.Limiter
	var pool workerpool.Pool
	maxConcurrency := *config.MaxConcurrency
	gateConfig := concurrency.Config{Capacity: maxConcurrency, InitialAvailable: -1}
	poolConfig := workerpool.Config{
		WorkerCount: maxConcurrency,
		Logger:      config.Logger.Named("workerpool"),
	}
	if metricsConfig.Enabled {
		gate, err = concurrency.NewWithConfigAndMetrics(gateConfig, config.Name, metricsConfig)
		if err != nil {
			return nil, err
		}
		pool, err = workerpool.NewWithConfigAndMetrics(poolConfig, config.Name, metricsConfig)
	} else {
		gate, err = concurrency.NewWithConfigSafe(gateConfig)
		if err != nil {
			return nil, err
		}
		pool, err = workerpool.NewWithConfigSafe(poolConfig)
	}
	if err != nil {
		return nil, err
	}

	lifetime, stop := context.WithCancel(context.Background())
	tb := &tokenBucket{
		name:           config.Name,
		rate:           config.Rate,
		interval:       refillInterval(config.Rate),
		capacity:       *config.Capacity,
		maxConcurrency: maxConcurrency,
		clock:          config.Clock,
		logger:         config.Logger,
		gate:           gate,
		pool:           pool,
		tokens:         config.InitialTokens,
		running:        true,
		refilled:       make(chan struct{}),
		startTime:      config.Clock.Now(),
		lifetime:       lifetime,
		stop:           stop,
		refillDone:     make(chan struct{}),
	}

	go tb.refill()

	tb.logger.Info("qps limiter started",
		zap.String("name", tb.name),
		zap.Float64("rate", tb.rate),
		zap.Int("capacity", tb.capacity),
		zap.Int("max_concurrency", tb.maxConcurrency),
		zap.Int("initial_tokens", config.InitialTokens))

	return tb, nil
}

// withDefaults validates config and fills in defaults.
func (c Config) withDefaults() (Config, error) {
	if err := validation.ValidatePositiveFloat("qps", "rate", c.Rate); err != nil {
		return c, err
	}
	if c.Capacity == nil {
		c.Capacity = Int(scaledDefault(c.Rate))
	} else if err := validation.ValidateNonNegative("qps", "capacity", *c.Capacity); err != nil {
		return c, err
	}
	if c.MaxConcurrency == nil {
		c.MaxConcurrency = Int(scaledDefault(c.Rate))
	} else if err := validation.ValidatePositive("qps", "max_concurrency", *c.MaxConcurrency); err != nil {
		return c, err
	}
	if err := validation.ValidateRange("qps", "initial_tokens", c.InitialTokens, 0, *c.Capacity); err != nil {
		return c, err
	}

	if c.Name == "" {
		c.Name = uuid.NewString()
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c, nil
}

// Int returns a pointer to v, for the optional Config fields.
func Int(v int) *int {
	return &v
}

// scaledDefault returns ceil(rate*100), at least 1 and at most MaxInt32.
func scaledDefault(rate float64) int {
	v := math.Ceil(rate * defaultMultiplier)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < 1 {
		return 1
	}
	return int(v)
}

// refillInterval returns 1/rate seconds, clamped to [1ns, MaxInt64].
func refillInterval(rate float64) time.Duration {
	ns := float64(time.Second) / rate
	if ns >= math.MaxInt64 {
		return math.MaxInt64
	}
	if ns < 1 {
		return time.Nanosecond
	}
	return time.Duration(ns)
}

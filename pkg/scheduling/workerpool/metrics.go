package workerpool

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/qpsflow/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new worker pool with metrics recorded on a private registry.
func NewWithMetrics(workerCount int, name string) (Pool, error) {
	return NewWithConfigAndMetrics(Config{WorkerCount: workerCount}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Pool, error) {
	basePool, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return basePool, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistryWithConfig(metricsConfig)
	}

	mp := &MetricsPool{
		pool:     basePool,
		name:     name,
		registry: registry,
		enabled:  true,
	}
	mp.updateMetrics()

	return mp, nil
}

func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled {
		return
	}
	mp.registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Workers()))
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
}

// Submit hands task to a worker, recording its outcome.
func (mp *MetricsPool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return mp.pool.Submit(ctx, nil)
	}
	err := mp.pool.Submit(ctx, &metricsTask{original: task, pool: mp})
	mp.updateMetrics()
	return err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original Task
	pool     *MetricsPool
}

// Execute runs the original task and records metrics.
func (mt *metricsTask) Execute(ctx context.Context) (err error) {
	mt.pool.updateMetrics()
	defer func() {
		r := recover()
		if mt.pool.enabled {
			if err != nil || r != nil {
				mt.pool.registry.TasksFailed.WithLabelValues(mt.pool.name).Inc()
			} else {
				mt.pool.registry.TasksCompleted.WithLabelValues(mt.pool.name).Inc()
			}
		}
		if r != nil {
			panic(r)
		}
	}()
	return mt.original.Execute(ctx)
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// Size returns the maximum number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// Workers returns the number of started workers.
func (mp *MetricsPool) Workers() int {
	return mp.pool.Workers()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	return mp.pool.ActiveWorkers()
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	mp.enabled = config.Enabled
	if config.Registry != nil {
		mp.registry = metrics.NewRegistryWithConfig(config)
	}
	mp.updateMetrics()
	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled
}

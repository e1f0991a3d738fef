package qps

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
	"github.com/vnykmshr/qpsflow/pkg/metrics"
)

const limiterType = "qps"

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a limiter whose gate, pool and admissions are
// recorded on a private Prometheus registry.
func NewWithMetrics(rate float64, name string) (Limiter, error) {
	return NewWithConfigAndMetrics(Config{Rate: rate, Name: name}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a limiter with custom config and metrics.
// name overrides config.Name when non-empty.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Limiter, error) {
	if name != "" {
		config.Name = name
	}

	base, err := newTokenBucket(config, metricsConfig)
	if err != nil {
		return nil, err
	}
	if !metricsConfig.Enabled {
		return base, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistryWithConfig(metricsConfig)
	}

	ml := &MetricsLimiter{
		limiter: base,
		name:    base.Name(),
	}
	ml.registry.Store(registry)
	ml.enabled.Store(true)
	ml.updateMetrics()

	return ml, nil
}

func (ml *MetricsLimiter) updateMetrics() {
	if !ml.enabled.Load() {
		return
	}
	r := ml.registry.Load()
	r.RateLimitTokens.WithLabelValues(limiterType, ml.name).Set(float64(ml.limiter.Tokens()))
	r.WorkInFlight.WithLabelValues(ml.name).Set(float64(ml.limiter.InFlight()))
	if q, err := ml.limiter.RealQPS(); err == nil {
		r.RateLimitRealQPS.WithLabelValues(limiterType, ml.name).Set(q)
	}
}

// Submit records the request, its wait for admission and the work's outcome.
// Work that consumed a token but could not be handed to the worker pool is
// counted as admitted and failed.
func (ml *MetricsLimiter) Submit(ctx context.Context, work Work) error {
	if !ml.enabled.Load() || work == nil {
		return ml.limiter.Submit(ctx, work)
	}

	r := ml.registry.Load()
	r.RateLimitRequests.WithLabelValues(limiterType, ml.name).Inc()

	start := time.Now()
	ran := false
	err := ml.limiter.Submit(ctx, func(ctx context.Context) error {
		ran = true
		begin := time.Now()
		r.RateLimitAdmitted.WithLabelValues(limiterType, ml.name).Inc()
		r.RateLimitWaitTime.WithLabelValues(limiterType, ml.name).Observe(begin.Sub(start).Seconds())
		ml.updateMetrics()

		defer func() {
			r.WorkDuration.WithLabelValues(ml.name).Observe(time.Since(begin).Seconds())
		}()
		return work(ctx)
	})

	var opErr *gferrors.OperationError
	switch {
	case !ran && errors.As(err, &opErr):
		r.RateLimitAdmitted.WithLabelValues(limiterType, ml.name).Inc()
		r.WorkFailed.WithLabelValues(ml.name).Inc()
	case !ran:
		r.RateLimitRejected.WithLabelValues(limiterType, ml.name).Inc()
	case err != nil:
		r.WorkFailed.WithLabelValues(ml.name).Inc()
	default:
		r.WorkCompleted.WithLabelValues(ml.name).Inc()
	}
	ml.updateMetrics()

	return err
}

// RealQPS returns the observed admission rate and updates its gauge.
func (ml *MetricsLimiter) RealQPS() (float64, error) {
	q, err := ml.limiter.RealQPS()
	if err == nil && ml.enabled.Load() {
		ml.registry.Load().RateLimitRealQPS.WithLabelValues(limiterType, ml.name).Set(q)
	}
	return q, err
}

// Shutdown shuts down the underlying limiter.
func (ml *MetricsLimiter) Shutdown(ctx context.Context) error {
	err := ml.limiter.Shutdown(ctx)
	ml.updateMetrics()
	return err
}

// Name returns the limiter name.
func (ml *MetricsLimiter) Name() string { return ml.limiter.Name() }

// Rate returns the refill rate.
func (ml *MetricsLimiter) Rate() float64 { return ml.limiter.Rate() }

// Capacity returns the bucket capacity.
func (ml *MetricsLimiter) Capacity() int { return ml.limiter.Capacity() }

// MaxConcurrency returns the admission bound.
func (ml *MetricsLimiter) MaxConcurrency() int { return ml.limiter.MaxConcurrency() }

// Tokens returns the available tokens and updates the tokens gauge.
func (ml *MetricsLimiter) Tokens() int {
	tokens := ml.limiter.Tokens()
	if ml.enabled.Load() {
		ml.registry.Load().RateLimitTokens.WithLabelValues(limiterType, ml.name).Set(float64(tokens))
	}
	return tokens
}

// InFlight returns the number of admitted, unfinished work items.
func (ml *MetricsLimiter) InFlight() int { return ml.limiter.InFlight() }

// Completed returns the number of admitted work items.
func (ml *MetricsLimiter) Completed() int64 { return ml.limiter.Completed() }

// Running reports whether the limiter accepts new work.
func (ml *MetricsLimiter) Running() bool { return ml.limiter.Running() }

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		ml.registry.Store(metrics.NewRegistryWithConfig(config))
	}
	ml.enabled.Store(config.Enabled)
	ml.updateMetrics()
	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled.Load()
}

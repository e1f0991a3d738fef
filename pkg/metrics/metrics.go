// Package metrics provides Prometheus instrumentation for qpsflow components.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metric instances for qpsflow components.
type Registry struct {
	// Rate limiting
	RateLimitRequests *prometheus.CounterVec
	RateLimitAdmitted *prometheus.CounterVec
	RateLimitRejected *prometheus.CounterVec
	RateLimitWaitTime *prometheus.HistogramVec
	RateLimitTokens   *prometheus.GaugeVec
	RateLimitRealQPS  *prometheus.GaugeVec

	// Work dispatched through a limiter
	WorkInFlight  *prometheus.GaugeVec
	WorkDuration  *prometheus.HistogramVec
	WorkCompleted *prometheus.CounterVec
	WorkFailed    *prometheus.CounterVec

	// Admission gate
	ConcurrencyActive  *prometheus.GaugeVec
	ConcurrencyWaiting *prometheus.GaugeVec

	// Worker pool
	WorkerPoolSize   *prometheus.GaugeVec
	WorkerPoolActive *prometheus.GaugeVec
	TasksCompleted   *prometheus.CounterVec
	TasksFailed      *prometheus.CounterVec
}

// DefaultRegistry is the registry used when a component is given no Registerer.
var DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryWithConfig creates a metrics registry honoring the namespace and
// constant labels of config. Collectors already registered on the same
// Registerer are reused, so several components may share one Registerer.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	labels := config.Labels

	rateLabels := []string{"limiter_type", "limiter_name"}
	limiterLabels := []string{"limiter_name"}
	poolLabels := []string{"pool_name"}

	return &Registry{
		RateLimitRequests: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "requests_total",
				Help:        "Total number of work items submitted to a limiter",
				ConstLabels: labels,
			},
			rateLabels,
		)),

		RateLimitAdmitted: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "admitted_total",
				Help:        "Total number of work items that consumed a token",
				ConstLabels: labels,
			},
			rateLabels,
		)),

		RateLimitRejected: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "rejected_total",
				Help:        "Total number of work items refused before admission",
				ConstLabels: labels,
			},
			rateLabels,
		)),

		RateLimitWaitTime: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "wait_duration_seconds",
				Help:        "Time spent waiting for a slot and a token",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			rateLabels,
		)),

		RateLimitTokens: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "tokens_available",
				Help:        "Number of tokens currently available",
				ConstLabels: labels,
			},
			rateLabels,
		)),

		RateLimitRealQPS: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "real_qps",
				Help:        "Observed admissions per second since the limiter started",
				ConstLabels: labels,
			},
			rateLabels,
		)),

		WorkInFlight: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "work",
				Name:        "in_flight",
				Help:        "Number of admitted work items that have not finished",
				ConstLabels: labels,
			},
			limiterLabels,
		)),

		WorkDuration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "work",
				Name:        "duration_seconds",
				Help:        "Execution time of admitted work items",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			limiterLabels,
		)),

		WorkCompleted: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "work",
				Name:        "completed_total",
				Help:        "Total number of work items that finished without error",
				ConstLabels: labels,
			},
			limiterLabels,
		)),

		WorkFailed: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "work",
				Name:        "failed_total",
				Help:        "Total number of work items that returned an error or panicked",
				ConstLabels: labels,
			},
			limiterLabels,
		)),

		ConcurrencyActive: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "concurrency",
				Name:        "active",
				Help:        "Number of held admission slots",
				ConstLabels: labels,
			},
			limiterLabels,
		)),

		ConcurrencyWaiting: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "concurrency",
				Name:        "waiting",
				Help:        "Number of callers waiting for an admission slot",
				ConstLabels: labels,
			},
			limiterLabels,
		)),

		WorkerPoolSize: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "workers",
				Help:        "Number of spawned workers",
				ConstLabels: labels,
			},
			poolLabels,
		)),

		WorkerPoolActive: register(reg, prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "active_workers",
				Help:        "Number of workers executing a task",
				ConstLabels: labels,
			},
			poolLabels,
		)),

		TasksCompleted: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_completed_total",
				Help:        "Total number of tasks completed successfully",
				ConstLabels: labels,
			},
			poolLabels,
		)),

		TasksFailed: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_failed_total",
				Help:        "Total number of tasks that failed",
				ConstLabels: labels,
			},
			poolLabels,
		)),
	}
}

// register registers c on reg, returning the previously registered collector
// when an identical one already exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Package metrics provides Prometheus instrumentation for qpsflow components.
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	limiter, err := qps.NewWithMetrics(20, "upstream_api")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation. Several components may share
// the same Registerer; collectors are registered once and reused.
//
//	registry := prometheus.NewRegistry()
//	limiter, err := qps.NewWithConfigAndMetrics(
//		qps.Config{Rate: 5},
//		"custom_limiter",
//		metrics.Config{Enabled: true, Registry: registry},
//	)
//
// # Available Metrics
//
// Rate limiting (labels limiter_type, limiter_name):
//
//   - qpsflow_ratelimit_requests_total
//   - qpsflow_ratelimit_admitted_total
//   - qpsflow_ratelimit_rejected_total
//   - qpsflow_ratelimit_wait_duration_seconds
//   - qpsflow_ratelimit_tokens_available
//   - qpsflow_ratelimit_real_qps
//
// Work (label limiter_name):
//
//   - qpsflow_work_in_flight
//   - qpsflow_work_duration_seconds
//   - qpsflow_work_completed_total
//   - qpsflow_work_failed_total
//
// Admission gate (label limiter_name):
//
//   - qpsflow_concurrency_active
//   - qpsflow_concurrency_waiting
//
// Worker pool (label pool_name):
//
//   - qpsflow_workerpool_workers
//   - qpsflow_workerpool_active_workers
//   - qpsflow_workerpool_tasks_completed_total
//   - qpsflow_workerpool_tasks_failed_total
package metrics

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_customRegistry demonstrates using a custom Prometheus registry.
func Example_customRegistry() {
	reg := prometheus.NewRegistry()
	registry := NewRegistry(reg)

	registry.RateLimitRequests.WithLabelValues("qps", "upstream").Add(12)
	registry.RateLimitAdmitted.WithLabelValues("qps", "upstream").Add(10)

	fmt.Println(testutil.ToFloat64(registry.RateLimitAdmitted.WithLabelValues("qps", "upstream")))

	// Output:
	// 10
}

// Example_namespace demonstrates overriding the metric namespace.
func Example_namespace() {
	reg := prometheus.NewRegistry()
	registry := NewRegistryWithConfig(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "crawler",
	})

	registry.WorkInFlight.WithLabelValues("fetch").Set(3)

	families, _ := reg.Gather()
	for _, f := range families {
		fmt.Println(f.GetName())
	}

	// Output:
	// crawler_work_in_flight
}

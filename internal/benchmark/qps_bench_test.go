package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/vnykmshr/qpsflow/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/qpsflow/pkg/ratelimit/qps"
)

// newSaturatedLimiter returns a limiter whose bucket never runs dry during a
// benchmark, so the numbers reflect admission overhead rather than the rate.
func newSaturatedLimiter(b *testing.B, maxConcurrency int) qps.Limiter {
	b.Helper()
	l, err := qps.NewWithConfigSafe(qps.Config{
		Rate:           1e6,
		Capacity:       qps.Int(1 << 20),
		MaxConcurrency: qps.Int(maxConcurrency),
		InitialTokens:  1 << 20,
	})
	if err != nil {
		b.Fatalf("failed to create limiter: %v", err)
	}
	b.Cleanup(func() { _ = l.Shutdown(context.Background()) })
	return l
}

// BenchmarkQPSSubmit measures one uncontended Submit round trip.
func BenchmarkQPSSubmit(b *testing.B) {
	l := newSaturatedLimiter(b, 4)
	ctx := context.Background()
	work := func(context.Context) error { return nil }

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := l.Submit(ctx, work); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkQPSSubmitParallel measures Submit under contention for slots.
func BenchmarkQPSSubmitParallel(b *testing.B) {
	for _, slots := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("%dslots", slots), func(b *testing.B) {
			l := newSaturatedLimiter(b, slots)
			work := func(context.Context) error { return nil }

			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				ctx := context.Background()
				for pb.Next() {
					_ = l.Submit(ctx, work)
				}
			})
		})
	}
}

// BenchmarkQPSDo measures the typed helper.
func BenchmarkQPSDo(b *testing.B) {
	l := newSaturatedLimiter(b, 4)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = qps.Do(ctx, l, func(context.Context) (int, error) { return i, nil })
	}
}

// BenchmarkConcurrencyGate measures the admission gate on its own.
func BenchmarkConcurrencyGate(b *testing.B) {
	gate := concurrency.New(8)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			if err := gate.Wait(ctx); err == nil {
				gate.Release()
			}
		}
	})
}

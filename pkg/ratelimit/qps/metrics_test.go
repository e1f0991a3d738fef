package qps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/qpsflow/internal/testutil"
	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
	"github.com/vnykmshr/qpsflow/pkg/metrics"
)

func TestMetricsLimiter(t *testing.T) {
	reg := prometheus.NewRegistry()
	l, err := NewWithConfigAndMetrics(Config{Rate: 0.01, Capacity: Int(3), InitialTokens: 3}, "api", metrics.Config{
		Enabled:  true,
		Registry: reg,
	})
	testutil.AssertNoError(t, err)
	defer shutdown(t, l)

	ml, ok := l.(*MetricsLimiter)
	if !ok {
		t.Fatalf("expected *MetricsLimiter, got %T", l)
	}
	testutil.AssertEqual(t, ml.MetricsEnabled(), true)
	testutil.AssertEqual(t, ml.Name(), "api")

	ctx := context.Background()
	testutil.AssertNoError(t, l.Submit(ctx, noop))
	testutil.AssertNoError(t, l.Submit(ctx, noop))
	testutil.AssertErrorIs(t, l.Submit(ctx, func(context.Context) error {
		return errors.New("boom")
	}), ErrWorkFailed)

	// Bucket is now empty and refills every 100s.
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	testutil.AssertErrorIs(t, l.Submit(waitCtx, noop), context.DeadlineExceeded)

	r := ml.registry.Load()
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitRequests.WithLabelValues(limiterType, "api")), 4.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitAdmitted.WithLabelValues(limiterType, "api")), 3.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitRejected.WithLabelValues(limiterType, "api")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.WorkCompleted.WithLabelValues("api")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.WorkFailed.WithLabelValues("api")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitTokens.WithLabelValues(limiterType, "api")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.WorkInFlight.WithLabelValues("api")), 0.0)

	if n := promtest.CollectAndCount(r.WorkDuration); n != 1 {
		t.Errorf("expected one work duration series, got %d", n)
	}

	ml.DisableMetrics()
	testutil.AssertEqual(t, ml.MetricsEnabled(), false)
	waitCtx2, cancel2 := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel2()
	_ = l.Submit(waitCtx2, noop)
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitRequests.WithLabelValues(limiterType, "api")), 4.0)
}

func TestNewWithMetrics(t *testing.T) {
	l, err := NewWithMetrics(10, "crawler")
	testutil.AssertNoError(t, err)
	defer shutdown(t, l)

	ml, ok := l.(*MetricsLimiter)
	if !ok {
		t.Fatalf("expected *MetricsLimiter, got %T", l)
	}
	testutil.AssertEqual(t, ml.MetricsEnabled(), true)
	testutil.AssertEqual(t, ml.Rate(), 10.0)
	testutil.AssertEqual(t, ml.Capacity(), 1000)
}

func TestNewWithConfigAndMetricsDisabled(t *testing.T) {
	l, err := NewWithConfigAndMetrics(Config{Rate: 10}, "plain", metrics.Config{})
	testutil.AssertNoError(t, err)
	defer shutdown(t, l)

	if _, ok := l.(*MetricsLimiter); ok {
		t.Error("expected the plain limiter when metrics are disabled")
	}
	testutil.AssertEqual(t, l.Name(), "plain")
}

func TestNewWithMetricsInvalidRate(t *testing.T) {
	_, err := NewWithMetrics(0, "bad")
	testutil.AssertError(t, err)
}

func TestMetricsLimiterDispatchFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	l, err := NewWithConfigAndMetrics(Config{Rate: 0.01, InitialTokens: 1}, "dispatch", metrics.Config{
		Enabled:  true,
		Registry: reg,
	})
	testutil.AssertNoError(t, err)
	defer shutdown(t, l)

	ml := l.(*MetricsLimiter)
	<-ml.limiter.(*tokenBucket).pool.Shutdown()

	var opErr *gferrors.OperationError
	if err := l.Submit(context.Background(), noop); !errors.As(err, &opErr) {
		t.Fatalf("expected *OperationError, got %v", err)
	}

	r := ml.registry.Load()
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitRequests.WithLabelValues(limiterType, "dispatch")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitAdmitted.WithLabelValues(limiterType, "dispatch")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.RateLimitRejected.WithLabelValues(limiterType, "dispatch")), 0.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.WorkFailed.WithLabelValues("dispatch")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.WorkCompleted.WithLabelValues("dispatch")), 0.0)
}

func TestMetricsLimiterToggleConcurrent(t *testing.T) {
	l, err := NewWithConfigAndMetrics(Config{Rate: 1000, Capacity: Int(100), InitialTokens: 100}, "toggle", metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
	testutil.AssertNoError(t, err)
	defer shutdown(t, l)
	ml := l.(*MetricsLimiter)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for j := 0; j < 10; j++ {
				if err := l.Submit(ctx, noop); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for j := 0; j < 20; j++ {
			ml.DisableMetrics()
			_ = ml.EnableMetrics(metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
		}
		return nil
	})
	testutil.AssertNoError(t, g.Wait())
	testutil.AssertEqual(t, ml.MetricsEnabled(), true)
}

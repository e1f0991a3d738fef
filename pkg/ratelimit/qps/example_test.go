package qps_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnykmshr/qpsflow/pkg/ratelimit/qps"
)

func Example() {
	limiter, err := qps.NewWithConfigSafe(qps.Config{
		Rate:           50,
		MaxConcurrency: qps.Int(4),
		InitialTokens:  3,
	})
	if err != nil {
		panic(err)
	}
	defer limiter.Shutdown(context.Background())

	for i := 1; i <= 3; i++ {
		err := limiter.Submit(context.Background(), func(ctx context.Context) error {
			fmt.Println("request", i)
			return nil
		})
		if err != nil {
			fmt.Println("error:", err)
		}
	}

	fmt.Println("completed:", limiter.Completed())

	// Output:
	// request 1
	// request 2
	// request 3
	// completed: 3
}

func ExampleDo() {
	limiter, err := qps.NewWithConfigSafe(qps.Config{Rate: 100, InitialTokens: 1})
	if err != nil {
		panic(err)
	}
	defer limiter.Shutdown(context.Background())

	n, err := qps.Do(context.Background(), limiter, func(ctx context.Context) (int, error) {
		return len("rate limited"), nil
	})
	fmt.Println(n, err)

	// Output:
	// 12 <nil>
}

func ExampleWorkError() {
	limiter, err := qps.NewWithConfigSafe(qps.Config{Rate: 100, InitialTokens: 1})
	if err != nil {
		panic(err)
	}
	defer limiter.Shutdown(context.Background())

	errNotFound := errors.New("not found")
	err = limiter.Submit(context.Background(), func(ctx context.Context) error {
		return errNotFound
	})

	fmt.Println(errors.Is(err, qps.ErrWorkFailed), errors.Is(err, errNotFound))

	// Output:
	// true true
}

func ExampleParseConfig() {
	fc, err := qps.ParseConfig([]byte("name: search\nrate: 5\nmax_concurrency: 2\n"))
	if err != nil {
		panic(err)
	}

	limiter, err := qps.NewWithConfigSafe(fc.Config(nil))
	if err != nil {
		panic(err)
	}
	defer limiter.Shutdown(context.Background())

	fmt.Println(limiter.Name(), limiter.Rate(), limiter.Capacity(), limiter.MaxConcurrency())

	// Output:
	// search 5 500 2
}

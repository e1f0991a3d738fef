package qps

import (
	"errors"
	"fmt"

	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
)

var (
	// ErrShutdown is returned by Submit once the limiter has been shut down,
	// including to callers that were still waiting for a slot or a token.
	ErrShutdown = fmt.Errorf("qps limiter is shut down: %w", gferrors.ErrClosed)

	// ErrWorkFailed matches every *WorkError.
	ErrWorkFailed = errors.New("qps: work failed")

	// ErrUndefinedQPS is returned by RealQPS when no time has elapsed since start.
	ErrUndefinedQPS = errors.New("qps: real qps undefined for zero elapsed time")
)

// WorkError wraps an error returned (or a panic raised) by submitted work.
// errors.Is matches both ErrWorkFailed and the original cause.
type WorkError struct {
	Cause error
}

func (e *WorkError) Error() string {
	return "qps: work failed: " + e.Cause.Error()
}

// Unwrap returns ErrWorkFailed and the cause.
func (e *WorkError) Unwrap() []error {
	return []error{ErrWorkFailed, e.Cause}
}

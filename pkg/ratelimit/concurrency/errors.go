package concurrency

import (
	"fmt"

	gferrors "github.com/vnykmshr/qpsflow/pkg/common/errors"
)

func errCapacity(n, capacity int) error {
	return fmt.Errorf("concurrency: %d permits requested, capacity is %d: %w", n, capacity, gferrors.ErrCapacityExceeded)
}

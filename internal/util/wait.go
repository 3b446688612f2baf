package util

import (
	"context"
	"time"
)

// WaitFor blocks for d or until ctx is done. When wait is set it replaces the
// timer, so tests can skip real waiting.
func WaitFor(ctx context.Context, d time.Duration, wait func(time.Duration)) error {
	if d <= 0 {
		return ctx.Err()
	}

	if wait != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait(d)
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

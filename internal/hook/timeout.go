package hook

import (
	"context"
	"fmt"
	"time"

	"github.com/headonpro/contenthooks/internal/apperr"
)

// Operation is a caller-supplied unit of work run around a lifecycle event.
// It may return modified payload data to merge back into the event.
type Operation func(ctx context.Context, ev *Event) (map[string]any, error)

// RunWithDeadline races op against a deadline and returns whichever settles
// first. The deadline timer is always stopped, so the success path leaks no
// timers. A panicking op is converted into an error.
//
// Limitation: an op that misses the deadline is abandoned, not cancelled.
// The guard stops waiting but cannot forcibly stop the goroutine, so
// operations must avoid unguarded side effects past the deadline.
func RunWithDeadline[T any](ctx context.Context, deadline time.Duration, op func(context.Context) (T, error)) (T, error) {
	type settled struct {
		val T
		err error
	}

	// Buffered so the abandoned goroutine can always complete its send.
	ch := make(chan settled, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				var zero T
				ch <- settled{zero, fmt.Errorf("operation panic: %v", rec)}
			}
		}()
		v, err := op(ctx)
		ch <- settled{v, err}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case out := <-ch:
		return out.val, out.err
	case <-timer.C:
		var zero T
		return zero, fmt.Errorf("deadline %s elapsed: %w", deadline, apperr.ErrTimeout)
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

package sightapi

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const DefaultTimeout = 10 * time.Second

var errTimedOut = errors.New("sightapi: request timed out")

// panicError carries a panic out of the goroutine running an op.
type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

// withTimeout runs op against a timer. If the timer fires first the context
// handed to op is cancelled and errTimedOut is returned; otherwise op's result
// passes through unchanged. The timer is stopped on every path.
//
// op must release anything it opens before returning, because its result is
// dropped after a timeout.
func withTimeout[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		d = DefaultTimeout
	}
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := time.NewTimer(d)
	defer t.Stop()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1) // buffered: op never blocks after we leave
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- result{err: panicError{v}}
			}
		}()
		v, err := op(opCtx)
		done <- result{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		return r.v, r.err
	case <-t.C:
		cancel()
		return zero, errTimedOut
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

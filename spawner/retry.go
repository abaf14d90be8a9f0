package spawner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/trouthatch/trout"
)

// Retry bounds retries of ledger and storage reads.
type Retry struct {
	// Attempts is the total number of tries, the first included.
	Attempts int
	// Delay is the fixed pause between tries.
	Delay time.Duration
}

// DefaultRetry is three tries one second apart.
var DefaultRetry = Retry{Attempts: 3, Delay: time.Second}

// retry calls f until it succeeds, returns a backoff.Permanent error or
// runs out of attempts. Exhausted attempts are reported as ErrTransient.
func retry[T any](ctx context.Context, p Retry, what string, f func() (T, error)) (T, error) {
	permanent := false
	op := func() (T, error) {
		v, err := f()
		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			permanent = true
		}
		return v, err
	}
	v, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(max(p.Attempts, 1))),
		backoff.WithNotify(func(err error, next time.Duration) {
			trout.Logger().Warn("retrying", "op", what, "in", next, "err", err)
		}),
	)
	if err != nil && !permanent && ctx.Err() == nil {
		return v, fmt.Errorf("%w: %s: %w", ErrTransient, what, err)
	}
	return v, err
}

// Package retry defines the bounded retry policy used around transport calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrRetriesExhausted is returned once an operation failed on every allowed attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Policy retries a failed operation after a fixed delay, up to MaxRetries times.
type Policy struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`
	Delay      time.Duration `json:"delay" yaml:"delay"`
}

// DefaultPolicy waits two minutes between attempts and gives up after five retries.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 5,
		Delay:      120 * time.Second,
	}
}

// NoRetryPolicy returns a policy that tries exactly once.
func NoRetryPolicy() Policy {
	return Policy{}
}

// Attempts is the total number of calls the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// RetryableFunc is one attempt. attempt starts at 0.
type RetryableFunc func(ctx context.Context, attempt int) error

// NotifyFunc is called after a failed attempt that will be retried.
type NotifyFunc func(err error, attempt int, next time.Duration)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, the policy runs out of retries, or ctx is done.
// Exhaustion is reported as ErrRetriesExhausted wrapping the last error; cancellation
// returns the context error unchanged.
func (p Policy) Do(ctx context.Context, fn RetryableFunc, notify NotifyFunc) error {
	attempt := 0
	stopped := false
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := fn(ctx, attempt)
		attempt++
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			stopped = true
		}
		return err
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, next time.Duration) {
			notify(err, attempt-1, next)
		}
	}

	err := backoff.RetryNotify(op, p.backOff(ctx), onRetry)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if stopped {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	b = backoff.WithMaxRetries(b, uint64(retries))
	return backoff.WithContext(b, ctx)
}

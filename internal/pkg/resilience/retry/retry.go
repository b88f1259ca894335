// Package retry provides a configurable retry mechanism for operations that
// may fail temporarily. It wraps the retry-go package from Avast behind a
// small interface with functional options, using exponential backoff.
//
// Nothing in the dashboard core retries automatically: a Retry is only ever
// applied where the caller explicitly opts in (e.g. the event synchronizer's
// backfill option).
package retry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry executes an operation with automatic retry logic on failure.
type Retry interface {
	// Execute runs the given function with the configured retry policy.
	// It returns nil once the operation succeeds, or the error chain of all
	// failed attempts. If the context is canceled, retrying stops and the
	// context error is included.
	//
	// The operation should be idempotent.
	Execute(ctx context.Context, operation func() error) []error
}

// config holds internal settings for the retry mechanism.
type config struct {
	attempts uint          // maximum number of attempts (initial try included)
	delay    time.Duration // base delay between attempts
	maxDelay time.Duration // ceiling for the backoff delay
}

// Option defines a functional option for configuring the retry mechanism.
type Option func(*config)

// retrier implements the Retry interface using the retry-go package.
type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// Execute runs the operation under the configured exponential backoff policy.
func (r *retrier) Execute(ctx context.Context, operation func() error) []error {
	err := retry.Do(operation,
		retry.Context(ctx),
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(false),
	)
	if err == nil {
		return nil
	}

	if retryErrs, ok := err.(retry.Error); ok {
		return retryErrs.WrappedErrors()
	}
	return []error{err}
}

// New creates a Retry with the provided options. Defaults: 3 attempts,
// 1 second base delay, 5 second maximum delay.
func New(opts ...Option) *retrier {
	cfg := config{
		attempts: 3,
		delay:    time.Second,
		maxDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{cfg: cfg}
}

// WithAttempts sets the maximum number of attempts, including the initial one.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay between attempts.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay sets the ceiling for the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

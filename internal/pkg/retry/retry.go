package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = time.Second
	defaultMaxDelay = 30 * time.Second
)

// RetryConfig bounds a retried call. Delay doubles after every failed attempt
// (Delay, 2*Delay, 4*Delay...) up to MaxDelay; Timeout bounds each single attempt.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS"`
	Delay    time.Duration `env:"DELAY"`
	MaxDelay time.Duration `env:"MAX_DELAY"`
	Timeout  time.Duration `env:"TIMEOUT"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.MaxDelay(rc.MaxDelay),
		retry.Delay(rc.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

type options struct {
	retryIf func(error) bool
	onRetry func(attempt uint, err error)
}

type Option func(*options)

// WithRetryIf decides whether a failed attempt may be repeated.
func WithRetryIf(f func(error) bool) Option {
	return func(o *options) {
		o.retryIf = f
	}
}

// WithOnRetry is called after every failed attempt that will be retried.
func WithOnRetry(f func(attempt uint, err error)) Option {
	return func(o *options) {
		o.onRetry = f
	}
}

// Do runs op until it succeeds, the predicate rejects the error or the attempts
// are exhausted. The last error is returned unwrapped.
func Do(ctx context.Context, rc RetryConfig, op func(ctx context.Context) error, opts ...Option) error {
	o := &options{
		retryIf: func(error) bool { return true },
		onRetry: func(uint, error) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	// retry-go treats zero attempts as unlimited.
	if rc.Attempts == 0 {
		rc.Attempts = 1
	}

	attempt := func() error {
		attemptCtx := ctx
		if rc.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, rc.Timeout)
			defer cancel()
		}
		return op(attemptCtx)
	}

	retryOpts := append(rc.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			// The caller is gone; only per-attempt deadlines are worth retrying.
			if ctx.Err() != nil {
				return false
			}
			return o.retryIf(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			// retry-go reports the final failure too; only surface real retries.
			if n+1 < rc.Attempts {
				o.onRetry(n, err)
			}
		}),
	)

	return retry.Do(attempt, retryOpts...)
}

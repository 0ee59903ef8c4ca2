package eventbus

import (
	"context"
	"errors"
	"time"
)

// isTransient classifies a publish failure. Configuration errors and caller
// cancellation are permanent; everything else (network, timeout, broker
// unavailable) consumes retry budget.
func isTransient(err error) bool {
	if IsConfigurationError(err) {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

// retrier applies the bus retry policy to a single send function.
type retrier struct {
	maxRetries  int
	backoff     time.Duration
	exponential bool
}

func newRetrier(cfg Config) *retrier {
	return &retrier{
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.RetryBackoff,
		exponential: cfg.ExponentialBackoff,
	}
}

// do invokes send until it succeeds, a permanent error occurs, or the retry
// budget is exhausted. Failure is always reported as a PublishError carrying
// the attempt count.
func (r *retrier) do(ctx context.Context, send func() error) error {
	backoff := r.backoff
	attempts := 0

	for {
		attempts++

		err := send()
		if err == nil {
			return nil
		}

		if !isTransient(err) || attempts > r.maxRetries {
			return &PublishError{Attempts: attempts, Err: err}
		}

		select {
		case <-ctx.Done():
			return &PublishError{Attempts: attempts, Err: ctx.Err()}
		case <-time.After(backoff):
		}

		if r.exponential {
			backoff *= 2
		}
	}
}

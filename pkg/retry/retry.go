// Package retry wraps remote operations with bounded retries and
// exponential backoff. Keeping the retry policy here keeps the syncer's
// diff/write algorithm free of retry concerns.
package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// maxDelay bounds the backoff so that a long retry budget can't stretch a
// run indefinitely.
const maxDelay = 60 * time.Second

// minDelay is the floor for the delay between retries. Hammering the Hub
// with zero-delay retries would only trip its rate limiting.
const minDelay = time.Second

// A Policy describes how a failing operation is retried.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Zero means the operation is attempted exactly once.
	MaxRetries int

	// InitialDelay is the delay before the first retry. Each subsequent
	// delay doubles, up to an internal cap.
	InitialDelay time.Duration

	// Clock is the time source used for the backoff waits. Defaults to
	// the real clock.
	Clock clockwork.Clock
}

// ExhaustedError is returned when all attempts failed. It records how many
// attempts were made and wraps the last error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (err ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %s", err.Attempts, err.Err)
}

func (err ExhaustedError) Unwrap() error {
	return err.Err
}

// Do runs fn, retrying retryable failures according to the policy. Terminal
// failures (authentication, not-found, and anything else that retrying
// can't fix) propagate immediately without consuming the retry budget.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	clock := policy.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	delay := policy.InitialDelay
	if delay < minDelay {
		delay = minDelay
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxRetries+1; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == policy.MaxRetries+1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(delay):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return ExhaustedError{Attempts: policy.MaxRetries + 1, Err: lastErr}
}

// IsRetryable classifies an error as transient. Transport-level failures,
// Hub rate limiting, and server errors are worth retrying; everything else
// (bad credentials, missing repositories, cancellation) is terminal.
func IsRetryable(err error) bool {
	if stderrors.Is(err, errors.ErrContentChanged) {
		return true
	}

	var status errors.StatusError
	if stderrors.As(err, &status) {
		return status.Code == 429 || status.Code == 408 || status.Code >= 500
	}

	var netErr net.Error
	return stderrors.As(err, &netErr)
}

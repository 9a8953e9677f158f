package retry

import (
	"context"
	stderrors "errors"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// retryableErr stands in for a transient Hub failure.
var retryableErr = errors.StatusError{Code: 500, URL: "http://test"}

// doWithFakeClock runs Do in a goroutine and advances the fake clock
// through the expected number of backoff waits.
func doWithFakeClock(t *testing.T, policy Policy, waits int, fn func() error) error {
	t.Helper()

	clock := clockwork.NewFakeClock()
	policy.Clock = clock

	done := make(chan error, 1)
	go func() {
		done <- Do(context.Background(), policy, fn)
	}()

	for i := 0; i < waits; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Hour)
	}
	return <-done
}

func TestDoSucceedsFirstTry(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{MaxRetries: 3}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := doWithFakeClock(t, Policy{MaxRetries: 3, InitialDelay: time.Second}, 2,
		func() error {
			attempts++
			if attempts <= 2 {
				return retryableErr
			}
			return nil
		})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	attempts := 0
	err := doWithFakeClock(t, Policy{MaxRetries: 2, InitialDelay: time.Second}, 2,
		func() error {
			attempts++
			return retryableErr
		})

	assert.Equal(t, 3, attempts)

	var exhausted ExhaustedError
	assert.True(t, stderrors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, retryableErr, errors.RootCause(err))
}

func TestDoTerminalErrorNotRetried(t *testing.T) {
	unauthorized := errors.StatusError{Code: 401, URL: "http://test"}

	attempts := 0
	err := Do(context.Background(), Policy{MaxRetries: 5}, func() error {
		attempts++
		return unauthorized
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, unauthorized, err)
}

func TestDoZeroRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{}, func() error {
		attempts++
		return retryableErr
	})

	assert.Equal(t, 1, attempts)

	var exhausted ExhaustedError
	assert.True(t, stderrors.As(err, &exhausted))
	assert.Equal(t, 1, exhausted.Attempts)
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, Policy{MaxRetries: 3, InitialDelay: time.Second, Clock: clock},
			func() error { return retryableErr })
	}()

	clock.BlockUntil(1)
	cancel()

	assert.Equal(t, context.Canceled, <-done)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exp  bool
	}{
		{name: "RateLimited", err: errors.StatusError{Code: 429}, exp: true},
		{name: "ServerError", err: errors.StatusError{Code: 500}, exp: true},
		{name: "BadGateway", err: errors.StatusError{Code: 502}, exp: true},
		{name: "Timeout", err: errors.StatusError{Code: 408}, exp: true},
		{name: "Unauthorized", err: errors.StatusError{Code: 401}, exp: false},
		{name: "Forbidden", err: errors.StatusError{Code: 403}, exp: false},
		{name: "NotFound", err: errors.StatusError{Code: 404}, exp: false},
		{name: "NetworkError", err: &net.DNSError{IsTimeout: true}, exp: true},
		{name: "ContentChanged", err: errors.ErrContentChanged, exp: true},
		{name: "PlainError", err: errors.New("boom"), exp: false},
		{
			name: "WrappedServerError",
			err:  errors.WithContext(errors.StatusError{Code: 503}, "list tree"),
			exp:  true,
		},
		{
			name: "WrappedContentChanged",
			err:  errors.WithContext(errors.ErrContentChanged, "write app.py"),
			exp:  true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, IsRetryable(test.err))
		})
	}
}

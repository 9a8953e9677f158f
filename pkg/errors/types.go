package errors

import (
	"fmt"
)

// ConfigError represents invalid account or tuning configuration. It is the
// only error that aborts a run before any remote call is made.
type ConfigError struct {
	Reason string
}

func (err ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", err.Reason)
}

// AccountError represents a failure that took out a whole account, such as
// username resolution or space enumeration failing after all retries. The
// run skips the account and continues.
type AccountError struct {
	Account string
	Err     error
}

func (err AccountError) Error() string {
	return fmt.Sprintf("account %s: %s", err.Account, err.Err)
}

func (err AccountError) Unwrap() error {
	return err.Err
}

// ItemError represents one space failing to sync after all retries. It is
// recorded as a failed outcome and the run continues with the next space.
type ItemError struct {
	Space string
	Err   error
}

func (err ItemError) Error() string {
	return fmt.Sprintf("space %s: %s", err.Space, err.Err)
}

func (err ItemError) Unwrap() error {
	return err.Err
}

// StatusError represents a non-2xx response from the Hub API.
type StatusError struct {
	Code int
	URL  string
}

func (err StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", err.URL, err.Code)
}

package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// HandleFatalError prints the operator-facing message for err and exits
// with a non-zero status.
func HandleFatalError(err error) {
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic recovers from a panic, logs it with a stack trace, and exits.
// It should be deferred at the top of every goroutine that doesn't have
// another recovery mechanism.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Panicked: %v", r)
		os.Exit(1)
	}
}

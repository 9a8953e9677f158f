package sync

import (
	"time"

	"github.com/gifttotost1449/huggingface-sync/pkg/hub"
)

// Status classifies the result of one space's sync attempt.
type Status string

const (
	// StatusUnchanged means the local mirror already matched the remote.
	StatusUnchanged Status = "unchanged"

	// StatusAdded means the space was mirrored for the first time.
	StatusAdded Status = "added"

	// StatusUpdated means at least one file was written or removed.
	StatusUpdated Status = "updated"

	// StatusFailed means the sync failed after exhausting all retries.
	StatusFailed Status = "failed"
)

// A Result describes what applying the diff did to the local mirror.
type Result struct {
	// FilesWritten is the number of files downloaded and moved into place.
	FilesWritten int

	// FilesRemoved is the number of obsolete local files deleted.
	FilesRemoved int

	// BytesWritten is the total size of the downloaded contents.
	BytesWritten int64

	// FirstSync is whether the mirror directory did not exist before.
	FirstSync bool
}

// An Outcome is the recorded result of one space in one run. It is created
// once the sync attempt finishes and never mutated afterwards.
type Outcome struct {
	Space        hub.Space
	Status       Status
	FilesChanged int
	BytesWritten int64
	Duration     time.Duration
	FinishedAt   time.Time
	Err          string
}

// NewOutcome classifies a finished sync attempt. err is the error from the
// attempt after all retries, or nil on success.
func NewOutcome(space hub.Space, res Result, err error,
	duration time.Duration, finishedAt time.Time) Outcome {

	outcome := Outcome{
		Space:        space,
		FilesChanged: res.FilesWritten + res.FilesRemoved,
		BytesWritten: res.BytesWritten,
		Duration:     duration,
		FinishedAt:   finishedAt,
	}

	switch {
	case err != nil:
		outcome.Status = StatusFailed
		outcome.Err = err.Error()
	case outcome.FilesChanged == 0:
		outcome.Status = StatusUnchanged
	case res.FirstSync:
		outcome.Status = StatusAdded
	default:
		outcome.Status = StatusUpdated
	}
	return outcome
}

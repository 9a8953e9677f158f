package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacerZeroDelay(t *testing.T) {
	pacer := NewPacer(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		assert.NoError(t, pacer.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerSpacesOutWaits(t *testing.T) {
	const delay = 20 * time.Millisecond

	start := time.Now()
	pacer := NewPacer(delay)
	assert.NoError(t, pacer.Wait(context.Background()))
	assert.NoError(t, pacer.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

// The pacer runs after each sync, so even the very first wait must pause:
// it is what separates the first space from the second.
func TestPacerFirstWaitPauses(t *testing.T) {
	const delay = 20 * time.Millisecond

	start := time.Now()
	pacer := NewPacer(delay)
	assert.NoError(t, pacer.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestPacerCancelled(t *testing.T) {
	pacer := NewPacer(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, pacer.Wait(ctx))
}

package sync

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// A Pacer spaces out successive space syncs so that many sequential
// requests don't trip the Hub's rate limiting. The pause applies after
// every space regardless of outcome.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer that allows one sync per delay. A zero delay
// disables pacing entirely.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}

	limiter := rate.NewLimiter(rate.Every(delay), 1)
	// Consume the initial token. Wait runs after each sync, so every pair
	// of consecutive syncs is separated by the full delay.
	limiter.Allow()
	return &Pacer{limiter: limiter}
}

// Wait blocks until the next sync may start, or until the context is
// cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

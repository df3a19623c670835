package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/esmartdie/EXAM-CERTIFICATION-SCRAPER/internal/metrics"
)

// politeWait sleeps a randomized duration between requests so the scraper's
// traffic does not look mechanical.
type politeWait struct {
	phase    string
	minDelay time.Duration
	maxDelay time.Duration
	pause    func(ctx context.Context, d time.Duration)
}

func newPoliteWait(phase string, minDelay, maxDelay time.Duration) *politeWait {
	return &politeWait{
		phase:    phase,
		minDelay: minDelay,
		maxDelay: maxDelay,
		pause:    timerPause,
	}
}

// Wait blocks for a random duration within the configured range, or until ctx
// finishes.
func (w *politeWait) Wait(ctx context.Context) {
	d := w.minDelay
	if w.maxDelay > w.minDelay {
		d += rand.N(w.maxDelay - w.minDelay)
	}
	metrics.ObservePoliteDelay(w.phase, d)
	w.pause(ctx, d)
}

func timerPause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

package scraper

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// gate enforces a minimum spacing between navigations. It is a token bucket
// of size one refilled every minDelay, driven by the manager's Clock.
//
// The limiter works in float seconds and can hand out a pass a nanosecond
// early, so the time of the last pass is also kept as a hard floor. Not safe
// for concurrent use; the manager only calls it while holding its slot.
type gate struct {
	limiter  *rate.Limiter
	clock    Clock
	minDelay time.Duration
	last     time.Time
}

func newGate(minDelay time.Duration, clock Clock) *gate {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &gate{
		limiter:  rate.NewLimiter(limit, 1),
		clock:    clock,
		minDelay: minDelay,
	}
}

// Wait blocks until a navigation may start and returns how long it waited.
func (g *gate) Wait(ctx context.Context) (time.Duration, error) {
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if !g.last.IsZero() {
		if floor := g.minDelay - now.Sub(g.last); floor > delay {
			delay = floor
		}
	}
	if delay <= 0 {
		g.last = now
		return 0, nil
	}
	if err := g.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(g.clock.Now())
		return 0, err
	}
	g.last = g.clock.Now()
	return delay, nil
}

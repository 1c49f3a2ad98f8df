package wait

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// jitteredIntervalMs returns an interval uniformly distributed over
// [ms*(1-jitterFraction), ms*(1+jitterFraction)), floored at
// minIntervalMs, per spec.md §4.4 step 9.
func jitteredIntervalMs(rnd *rand.Rand, ms int64) int64 {
	if ms < minIntervalMs {
		ms = minIntervalMs
	}
	lo := float64(ms) * (1 - jitterFraction)
	span := float64(ms) * (2 * jitterFraction)
	jittered := lo + rnd.Float64()*span
	if jittered < minIntervalMs {
		jittered = minIntervalMs
	}
	return int64(jittered)
}

// delayWithRemaining sleeps min(remainingMs, jitteredIntervalMs) or
// returns early on ctx cancellation.
func delayWithRemaining(ctx context.Context, rnd *rand.Rand, intervalMs, remainingMs int64) error {
	delay := jitteredIntervalMs(rnd, intervalMs)
	if remainingMs >= 0 && remainingMs < delay {
		delay = remainingMs
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(delay) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// heartbeatGate throttles heartbeat emission to at most once per
// heartbeatIntervalMs, per spec.md §4.4 step 8.
type heartbeatGate struct {
	sometimes rate.Sometimes
}

func newHeartbeatGate() *heartbeatGate {
	return &heartbeatGate{sometimes: rate.Sometimes{Interval: time.Duration(heartbeatIntervalMs) * time.Millisecond}}
}

func (g *heartbeatGate) fire(f func()) {
	g.sometimes.Do(f)
}

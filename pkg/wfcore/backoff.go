package wfcore

import (
	"math/rand"
	"time"
)

// computeBackoffDelay is spec.md §4.8's backoff formula: initial *
// 2^(attempt-1), capped by maxBackoffMs, optionally widened by up to
// +/-jitterMs. attempt is 1-based (the delay before the *next*
// attempt, so attempt=2 means "the wait before the 2nd attempt").
func computeBackoffDelay(attempt int, cfg TimingConfig, rnd *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := float64(cfg.BackoffMs)
	delay := initial * float64(int64(1)<<uint(attempt-1))
	if cfg.MaxBackoffMs > 0 && delay > float64(cfg.MaxBackoffMs) {
		delay = float64(cfg.MaxBackoffMs)
	}
	if delay < 0 {
		delay = 0
	}
	if cfg.JitterMs > 0 && rnd != nil {
		jitter := rnd.Float64()*2*float64(cfg.JitterMs) - float64(cfg.JitterMs)
		delay += jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay) * time.Millisecond
}

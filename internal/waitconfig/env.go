// Package waitconfig loads TimingConfig defaults from the process
// environment, the same WAITCORE_* convention internal/log.FromEnv
// uses for logging configuration.
package waitconfig

import (
	"os"
	"strconv"

	"github.com/tombee/waitcore/pkg/wfcore"
)

// FromEnv builds a wfcore.TimingConfig starting from
// wfcore.DefaultTimingConfig and overriding any field whose
// environment variable is set and parses as a valid integer.
// Supported environment variables:
//   - WAITCORE_TIMEOUT_MS
//   - WAITCORE_INTERVAL_MS
//   - WAITCORE_RETRIES
//   - WAITCORE_BACKOFF_MS
//   - WAITCORE_MAX_BACKOFF_MS
//   - WAITCORE_JITTER_MS
func FromEnv() wfcore.TimingConfig {
	cfg := wfcore.DefaultTimingConfig()

	if v, ok := getInt64("WAITCORE_TIMEOUT_MS"); ok {
		cfg.TimeoutMs = v
	}
	if v, ok := getInt64("WAITCORE_INTERVAL_MS"); ok {
		cfg.IntervalMs = v
	}
	if v, ok := getInt("WAITCORE_RETRIES"); ok {
		cfg.Retries = v
	}
	if v, ok := getInt64("WAITCORE_BACKOFF_MS"); ok {
		cfg.BackoffMs = v
	}
	if v, ok := getInt64("WAITCORE_MAX_BACKOFF_MS"); ok {
		cfg.MaxBackoffMs = v
	}
	if v, ok := getInt64("WAITCORE_JITTER_MS"); ok {
		cfg.JitterMs = v
	}

	return cfg
}

// Merge layers override then perStep onto defaults, applying
// TimingConfig's own three-way precedence (spec.md §3: definition
// defaults -> caller overrides -> per-step overrides).
func Merge(defaults, override, perStep wfcore.TimingConfig) wfcore.TimingConfig {
	return defaults.Merge(override).Merge(perStep)
}

func getInt64(name string) (int64, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getInt(name string) (int, bool) {
	v, ok := getInt64(name)
	return int(v), ok
}

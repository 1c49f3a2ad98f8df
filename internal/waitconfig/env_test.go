package waitconfig

import (
	"os"
	"testing"

	"github.com/tombee/waitcore/pkg/wfcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	names := []string{
		"WAITCORE_TIMEOUT_MS", "WAITCORE_INTERVAL_MS", "WAITCORE_RETRIES",
		"WAITCORE_BACKOFF_MS", "WAITCORE_MAX_BACKOFF_MS", "WAITCORE_JITTER_MS",
	}
	for _, n := range names {
		os.Unsetenv(n)
	}
}

func TestFromEnv_DefaultsWhenUnset(t *testing.T) {
	clearEnv(t)
	got := FromEnv()
	if got != wfcore.DefaultTimingConfig() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestFromEnv_OverridesFromSetVariables(t *testing.T) {
	clearEnv(t)
	os.Setenv("WAITCORE_TIMEOUT_MS", "12000")
	os.Setenv("WAITCORE_RETRIES", "3")
	defer clearEnv(t)

	got := FromEnv()
	if got.TimeoutMs != 12000 {
		t.Errorf("expected TimeoutMs=12000, got %d", got.TimeoutMs)
	}
	if got.Retries != 3 {
		t.Errorf("expected Retries=3, got %d", got.Retries)
	}
	if got.IntervalMs != wfcore.DefaultTimingConfig().IntervalMs {
		t.Errorf("expected unset fields to keep their default")
	}
}

func TestFromEnv_IgnoresUnparseableValues(t *testing.T) {
	clearEnv(t)
	os.Setenv("WAITCORE_TIMEOUT_MS", "not-a-number")
	defer clearEnv(t)

	got := FromEnv()
	if got.TimeoutMs != wfcore.DefaultTimingConfig().TimeoutMs {
		t.Errorf("expected an unparseable value to fall back to the default")
	}
}

func TestMerge_AppliesThreeWayPrecedence(t *testing.T) {
	defaults := wfcore.TimingConfig{TimeoutMs: 1000, Retries: 0, BackoffMs: 100, MaxBackoffMs: 1000}
	override := wfcore.TimingConfig{TimeoutMs: 2000}
	perStep := wfcore.TimingConfig{Retries: 5}

	got := Merge(defaults, override, perStep)
	if got.TimeoutMs != 2000 {
		t.Errorf("expected override's TimeoutMs to win, got %d", got.TimeoutMs)
	}
	if got.Retries != 5 {
		t.Errorf("expected perStep's Retries to win, got %d", got.Retries)
	}
	if got.BackoffMs != 100 {
		t.Errorf("expected BackoffMs to fall back to defaults, got %d", got.BackoffMs)
	}
}

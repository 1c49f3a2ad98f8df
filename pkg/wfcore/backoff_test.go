package wfcore

import "testing"

func TestComputeBackoffDelay_DoublesWithoutJitter(t *testing.T) {
	cfg := TimingConfig{BackoffMs: 100, MaxBackoffMs: 10000, JitterMs: 0}
	want := []int64{100, 200, 400, 800}
	for i, w := range want {
		got := computeBackoffDelay(i+1, cfg, nil).Milliseconds()
		if got != w {
			t.Fatalf("attempt %d: got %dms, want %dms", i+1, got, w)
		}
	}
}

func TestComputeBackoffDelay_BoundedByMax(t *testing.T) {
	cfg := TimingConfig{BackoffMs: 1000, MaxBackoffMs: 1500, JitterMs: 0}
	got := computeBackoffDelay(5, cfg, nil).Milliseconds()
	if got != 1500 {
		t.Fatalf("expected delay capped at maxBackoffMs, got %dms", got)
	}
}

func TestComputeBackoffDelay_NeverNegative(t *testing.T) {
	cfg := TimingConfig{BackoffMs: 0, MaxBackoffMs: 0, JitterMs: 0}
	got := computeBackoffDelay(1, cfg, nil)
	if got < 0 {
		t.Fatalf("expected non-negative delay, got %v", got)
	}
}

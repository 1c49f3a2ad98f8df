package wfcore

import "testing"

func TestRunRegistry_ListActiveRunsReturnsSnapshotOfEachActiveRun(t *testing.T) {
	r := NewRunRegistry()
	r.insert("r1", func() {}, &RunMetadata{ID: "r1", Status: RunRunning})
	r.insert("r2", func() {}, &RunMetadata{ID: "r2", Status: RunRunning})

	runs := r.ListActiveRuns()
	if len(runs) != 2 {
		t.Fatalf("expected 2 active runs, got %d", len(runs))
	}

	seen := map[string]bool{}
	for _, m := range runs {
		seen[m.ID] = true
	}
	if !seen["r1"] || !seen["r2"] {
		t.Errorf("expected r1 and r2 in snapshot, got %v", runs)
	}
}

func TestRunRegistry_ListActiveRunsOmitsRemovedRuns(t *testing.T) {
	r := NewRunRegistry()
	r.insert("r1", func() {}, &RunMetadata{ID: "r1", Status: RunRunning})
	r.remove("r1")

	if runs := r.ListActiveRuns(); len(runs) != 0 {
		t.Fatalf("expected no active runs after remove, got %v", runs)
	}
}

func TestRunRegistry_ListActiveRunsIsIndependentOfLiveMetadata(t *testing.T) {
	r := NewRunRegistry()
	r.insert("r1", func() {}, &RunMetadata{ID: "r1", Status: RunRunning, CompletedSteps: 0})

	runs := r.ListActiveRuns()
	r.mutate("r1", func(m *RunMetadata) { m.CompletedSteps = 5 })

	if runs[0].CompletedSteps != 0 {
		t.Errorf("expected snapshot to be unaffected by later mutation, got %d", runs[0].CompletedSteps)
	}
}

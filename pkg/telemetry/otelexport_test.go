package telemetry_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tombee/waitcore/pkg/telemetry"
)

func TestOTelExporter_RecordsRunAndStepMetrics(t *testing.T) {
	exporter, err := telemetry.NewOTelExporter("waitcore-test", "0.0.0")
	if err != nil {
		t.Fatalf("unexpected error building exporter: %v", err)
	}

	bus := telemetry.NewBus(nil)
	exporter.Attach(bus)

	durationMs := int64(250)
	finishedAt := time.Unix(0, 0)
	bus.EmitRun(telemetry.RunEvent{
		RunID:      "r1",
		WorkflowID: "login-flow",
		Status:     "success",
		FinishedAt: &finishedAt,
		DurationMs: &durationMs,
	})

	done := make(chan struct{})
	bus.OnStep(func(batch []telemetry.StepEvent) { close(done) })
	bus.EmitStep(telemetry.StepEvent{
		RunID:      "r1",
		WorkflowID: "login-flow",
		StepID:     "click",
		Status:     telemetry.StepSuccess,
		DurationMs: &durationMs,
	})
	<-done

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	exporter.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "waitcore_runs_total") {
		t.Errorf("expected waitcore_runs_total in exported metrics, got:\n%s", body)
	}
	if !strings.Contains(body, "waitcore_steps_total") {
		t.Errorf("expected waitcore_steps_total in exported metrics, got:\n%s", body)
	}
}

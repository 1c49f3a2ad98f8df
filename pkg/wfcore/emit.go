package wfcore

import (
	"time"

	"github.com/tombee/waitcore/internal/log"
	"github.com/tombee/waitcore/pkg/telemetry"
)

// emitStep builds and forwards one StepEvent, sanitizing data before
// it ever reaches a listener (spec.md §7: "failures carry a sanitized
// payload").
func (e *runEnv) emitStep(step Step, status telemetry.StepStatus, attempt int, data map[string]any, err error, notes []string) {
	if e.bus == nil {
		return
	}
	kind := string(step.Kind)
	if step.Kind == KindAtomic && step.Handler != "" {
		kind = step.Handler
	}
	var sanitized map[string]any
	if data != nil {
		sanitized, _ = telemetry.Sanitize(data, nil).(map[string]any)
	}
	e.bus.EmitStep(telemetry.StepEvent{
		RunID:      e.runID,
		WorkflowID: e.workflowID,
		StepID:     step.ID,
		StepKind:   kind,
		LogicalKey: step.Key,
		Status:     status,
		Attempt:    attempt,
		Timestamp:  time.Now(),
		Data:       sanitized,
		Error:      err,
		Notes:      notes,
	})
}

// stepLogger forwards handler-initiated log calls to the run's own
// logger (narrowed per HandlerLogger), tagging each line with the
// issuing step and attempt.
type stepLogger struct {
	env     *runEnv
	step    Step
	attempt int
}

func (l stepLogger) Log(level string, msg string, args ...any) {
	if l.env.logger == nil {
		return
	}
	logger := log.WithStepContext(l.env.logger, l.env.runID, l.step.ID)
	tagged := append([]any{"attempt", l.attempt}, args...)
	switch level {
	case "debug":
		logger.Debug(msg, tagged...)
	case "warn":
		logger.Warn(msg, tagged...)
	case "error":
		logger.Error(msg, tagged...)
	default:
		logger.Info(msg, tagged...)
	}
}

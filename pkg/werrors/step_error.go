package werrors

import "fmt"

// StepError is the structured error produced by the workflow step
// scheduler (§4.8) and the resolver bridge (§4.9). It carries the same
// stable Code tags as WaitError so a caller branching on reason codes does
// not need to know which half of the system raised the error.
type StepError struct {
	Code     Code
	Message  string
	RunID    string
	StepID   string
	Attempt  int
	Data     map[string]any // sanitized context for telemetry, see pkg/telemetry
	Cause    error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("step %q (%s): %s", e.StepID, e.Code, e.Message)
	}
	return fmt.Sprintf("step (%s): %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// AsStepError normalizes any error into a *StepError, per §4.8 step 2e
// ("On throw, normalize to StepError"). Errors that are already a
// *StepError pass through unchanged; *WaitError is translated to a
// resolver-miss/timeout StepError carrying the same code; anything else
// becomes CodeUnknown.
func AsStepError(err error, runID, stepID string, attempt int) *StepError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StepError); ok {
		return se
	}
	if we, ok := err.(*WaitError); ok {
		return &StepError{
			Code:    we.Code,
			Message: we.Message,
			RunID:   runID,
			StepID:  stepID,
			Attempt: attempt,
			Cause:   we,
		}
	}
	return &StepError{
		Code:    CodeUnknown,
		Message: err.Error(),
		RunID:   runID,
		StepID:  stepID,
		Attempt: attempt,
		Cause:   err,
	}
}

// NewStepTimeout builds a CodeTimeout StepError for a per-step deadline
// breach.
func NewStepTimeout(runID, stepID string, attempt int, timeoutMs int64) *StepError {
	return &StepError{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("step exceeded timeout of %dms", timeoutMs),
		RunID:   runID,
		StepID:  stepID,
		Attempt: attempt,
	}
}

// NewStepResolverMiss builds a CodeResolverMiss StepError for a logical
// key that the resolver bridge could not resolve.
func NewStepResolverMiss(runID, stepID, key string, attempt int) *StepError {
	return &StepError{
		Code:    CodeResolverMiss,
		Message: fmt.Sprintf("resolver produced no element for key %q", key),
		RunID:   runID,
		StepID:  stepID,
		Attempt: attempt,
	}
}

// NewStepCancelled builds a CodeCancelled StepError.
func NewStepCancelled(runID, stepID string, attempt int, reason error) *StepError {
	msg := "step cancelled"
	if reason != nil {
		msg = fmt.Sprintf("step cancelled: %s", reason.Error())
	}
	return &StepError{
		Code:    CodeCancelled,
		Message: msg,
		RunID:   runID,
		StepID:  stepID,
		Attempt: attempt,
		Cause:   reason,
	}
}

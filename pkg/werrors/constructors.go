package werrors

import "fmt"

// NewTimeout builds a CodeTimeout WaitError for an ordinary deadline
// breach (not a stale-recovery exhaustion; use NewStaleExceeded for that).
func NewTimeout(key string, timeoutMs int64, elapsedMs int64, pollCount int, history []string) *WaitError {
	return &WaitError{
		Code:            CodeTimeout,
		Message:         fmt.Sprintf("timed out after %dms", timeoutMs),
		Key:             key,
		TimeoutMs:       timeoutMs,
		ElapsedMs:       elapsedMs,
		PollCount:       pollCount,
		StrategyHistory: history,
	}
}

// NewStaleExceeded builds a CodeTimeout WaitError whose message records
// that stale-recovery attempts were exhausted, per spec.md §8's scenario 5
// ("message contains stale").
func NewStaleExceeded(key string, staleRecoveries, staleCap int, elapsedMs int64, pollCount int, history []string) *WaitError {
	return &WaitError{
		Code: CodeTimeout,
		Message: fmt.Sprintf(
			"timed out: stale recoveries %d exceeded cap %d", staleRecoveries, staleCap,
		),
		Key:             key,
		ElapsedMs:       elapsedMs,
		PollCount:       pollCount,
		StrategyHistory: history,
		StaleRecoveries: staleRecoveries,
		staleExceeded:   true,
	}
}

// NewResolverMiss builds a CodeResolverMiss WaitError.
func NewResolverMiss(key string, summary *ResolveResultSummary, elapsedMs int64, pollCount int, history []string) *WaitError {
	return &WaitError{
		Code:            CodeResolverMiss,
		Message:         fmt.Sprintf("no strategy resolved key %q", key),
		Key:             key,
		ElapsedMs:       elapsedMs,
		PollCount:       pollCount,
		StrategyHistory: history,
		ResolveSummary:  summary,
	}
}

// NewIdleWindowExceeded builds a CodeIdleWindowExceeded WaitError.
func NewIdleWindowExceeded(maxWindowMs int64, elapsedMs int64, snapshot any) *WaitError {
	return &WaitError{
		Code:         CodeIdleWindowExceeded,
		Message:      fmt.Sprintf("idle window exceeded max window of %dms", maxWindowMs),
		ElapsedMs:    elapsedMs,
		IdleSnapshot: snapshot,
	}
}

// NewCancelled builds a CodeCancelled WaitError, optionally carrying the
// signal's abort reason as Cause.
func NewCancelled(key string, elapsedMs int64, pollCount int, reason error) *WaitError {
	msg := "operation cancelled"
	if reason != nil {
		msg = fmt.Sprintf("operation cancelled: %s", reason.Error())
	}
	return &WaitError{
		Code:      CodeCancelled,
		Message:   msg,
		Key:       key,
		ElapsedMs: elapsedMs,
		PollCount: pollCount,
		Cause:     reason,
	}
}

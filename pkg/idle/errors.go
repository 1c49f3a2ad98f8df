package idle

import "fmt"

// WindowExceededError is returned by Run when MaxWindowMs elapses
// before the subtree settles. The wait scheduler translates this into
// a werrors.WaitError with CodeIdleWindowExceeded, carrying Snapshot as
// the idle snapshot.
type WindowExceededError struct {
	MaxWindowMs int64
	ElapsedMs   int64
	Snapshot    Snapshot
}

func (e *WindowExceededError) Error() string {
	return fmt.Sprintf("idle gate: max window %dms exceeded after %dms", e.MaxWindowMs, e.ElapsedMs)
}

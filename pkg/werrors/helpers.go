package werrors

import (
	"errors"
	"fmt"
)

// Wrap creates a new error that wraps err with additional context. If err
// is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf creates a new error that wraps err with formatted context. If err
// is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target's type.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// CodeOf extracts the stable reason code from a WaitError or StepError
// wrapped anywhere in err's tree; returns CodeUnknown if neither is found.
func CodeOf(err error) Code {
	var we *WaitError
	if errors.As(err, &we) {
		return we.Code
	}
	var se *StepError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsCancelled reports whether err (or anything it wraps) carries
// CodeCancelled.
func IsCancelled(err error) bool {
	return CodeOf(err) == CodeCancelled
}

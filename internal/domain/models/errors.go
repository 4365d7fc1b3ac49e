package models

import (
	"errors"
	"fmt"
)

// TickFatalError marks an error that must abort the remaining writes of the
// current tick. Anything not wrapped in it is treated as degradable: logged
// and worked around with partial data.
type TickFatalError struct {
	Err error
}

func (e *TickFatalError) Error() string {
	return fmt.Sprintf("tick aborted: %v", e.Err)
}

func (e *TickFatalError) Unwrap() error { return e.Err }

// Fatal wraps err as fatal-for-tick. Returns nil for a nil err.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &TickFatalError{Err: err}
}

// IsFatal reports whether err (or anything it wraps) aborts the tick.
func IsFatal(err error) bool {
	var fe *TickFatalError
	return errors.As(err, &fe)
}

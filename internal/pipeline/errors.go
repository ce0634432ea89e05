package pipeline

import (
	"errors"
	"fmt"
)

// ErrPrecondition marks an event that is structurally unusable: no weight,
// or no H→ττ / H→bb̄ seed. Such events are skipped, not rejected.
var ErrPrecondition = errors.New("event precondition failed")

// PreconditionError describes why an event could not be processed.
type PreconditionError struct {
	RunNumber   uint64
	EventNumber uint64
	Reason      string
	Err         error
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("event %d/%d: %s", e.RunNumber, e.EventNumber, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrPrecondition as matching.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

package batch

import (
	"errors"
	"fmt"
)

// ErrInvalidStateForOperation is the sentinel error for batch operations
// attempted from a status that does not allow them.
var ErrInvalidStateForOperation = errors.New("operation is not valid for batch state")

// Status represents the lifecycle state of a delivery batch.
//
// State transitions:
//
//	Planned ──> Active <──> Paused
//	   │          │            │
//	   │          ├────────────┼──> Completed
//	   └──────────┴────────────┴──> Cancelled
//
// Completed and Cancelled are terminal: no further route or status mutation
// is accepted once a batch reaches them.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Planned is the initial status: route computed, courier not yet confirmed.
	Planned

	// Active indicates the courier is executing the batch.
	Active

	// Paused indicates execution is temporarily suspended.
	Paused

	// Completed indicates all deliveries finished. Terminal.
	Completed

	// Cancelled indicates the batch was aborted. Terminal.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Planned:   "planned",
		Active:    "active",
		Paused:    "paused",
		Completed: "completed",
		Cancelled: "cancelled",
	}
}

// String returns the human-readable name of the status.
// Implements fmt.Stringer; safe to call on any Status value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// Validate checks if the Status value is one of the defined batch states.
func (s Status) Validate() error {
	if s == Unknown {
		return fmt.Errorf("%d is not a valid batch status", s)
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return fmt.Errorf("%d is not a valid batch status", s)
	}
	return nil
}

// IsTerminal reports whether the batch state accepts no further mutation.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// InvalidStateError reports a batch operation rejected because of the
// batch's current status.
type InvalidStateError struct {
	Operation string
	Status    Status
}

// NewInvalidStateError creates an InvalidStateError for the given operation.
func NewInvalidStateError(operation string, status Status) *InvalidStateError {
	return &InvalidStateError{Operation: operation, Status: status}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s a %s batch", ErrInvalidStateForOperation, e.Operation, e.Status)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidStateForOperation
}

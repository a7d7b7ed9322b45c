package order

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is the sentinel error for rejected status transitions.
// Use errors.Is to classify an IllegalTransitionError.
var ErrIllegalTransition = errors.New("illegal status transition")

// Status represents the driver-facing lifecycle state of an order.
// It implements a state machine with an explicit adjacency table to ensure
// orders follow the correct delivery workflow.
//
// State transitions:
//
//	Assigned -> OnRouteToVendor -> ArrivedAtVendor -> PickedUp
//	    -> OnRouteToCustomer -> ArrivedAtCustomer -> Delivered
//
// Every non-terminal state may also transition to Cancelled.
// Delivered and Cancelled are terminal: no outgoing transitions.
//
// Status is a value object that validates state transitions and provides
// string representations for persistence and display.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Assigned is the initial status once an order is attached to a courier.
	Assigned

	// OnRouteToVendor indicates the courier is traveling to the pickup vendor.
	OnRouteToVendor

	// ArrivedAtVendor indicates the courier has reached the vendor.
	ArrivedAtVendor

	// PickedUp indicates the courier has collected the order from the vendor.
	PickedUp

	// OnRouteToCustomer indicates the courier is traveling to the customer.
	OnRouteToCustomer

	// ArrivedAtCustomer indicates the courier has reached the customer.
	ArrivedAtCustomer

	// Delivered indicates the order reached the customer. Terminal.
	Delivered

	// Cancelled indicates the delivery was aborted. Terminal.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
// All statuses are included for string conversion.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:           "unknown",
		Assigned:          "assigned",
		OnRouteToVendor:   "on_route_to_vendor",
		ArrivedAtVendor:   "arrived_at_vendor",
		PickedUp:          "picked_up",
		OnRouteToCustomer: "on_route_to_customer",
		ArrivedAtCustomer: "arrived_at_customer",
		Delivered:         "delivered",
		Cancelled:         "cancelled",
	}
}

// getAllowedTransitions returns the adjacency table of legal status transitions.
// A status absent from a successor list is not reachable from that status.
func getAllowedTransitions() map[Status][]Status {
	return map[Status][]Status{
		Assigned:          {OnRouteToVendor, Cancelled},
		OnRouteToVendor:   {ArrivedAtVendor, Cancelled},
		ArrivedAtVendor:   {PickedUp, Cancelled},
		PickedUp:          {OnRouteToCustomer, Cancelled},
		OnRouteToCustomer: {ArrivedAtCustomer, Cancelled},
		ArrivedAtCustomer: {Delivered, Cancelled},
		Delivered:         {},
		Cancelled:         {},
	}
}

// getLegacyStatusAliases maps alternate status vocabulary still used by older
// callers onto the canonical set. Keys are consulted only after canonical
// parsing fails, so canonical names never hit this table.
func getLegacyStatusAliases() map[string]Status {
	return map[string]Status{
		"confirmed":  Assigned,
		"placed":     Assigned,
		"pending":    Assigned,
		"preparing":  OnRouteToVendor,
		"ready":      ArrivedAtVendor,
		"in_transit": OnRouteToCustomer,
	}
}

// ParseStatus converts a canonical status string to a Status value.
// Returns an error for anything outside the canonical vocabulary;
// legacy aliases are handled by NormalizeStatus, not here.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != Unknown && str == s {
			return status, nil
		}
	}
	return Unknown, fmt.Errorf("%q is not a valid order status", s)
}

// NormalizeStatus maps any status string, canonical or legacy, onto the
// canonical set. Unrecognized values degrade to PickedUp, a safe mid-pipeline
// state, instead of failing closed. Normalization never errors; transition
// validation still gates every status write downstream, so a mis-normalized
// value can only move along legal edges. The permissive fallback can mask
// genuinely corrupt input.
func NormalizeStatus(s string) Status {
	if status, err := ParseStatus(s); err == nil {
		return status
	}

	if status, ok := getLegacyStatusAliases()[s]; ok {
		return status
	}

	return PickedUp
}

// String returns the snake_case name of the status.
// Implements fmt.Stringer; safe to call on any Status value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// Validate checks if the Status value belongs to the canonical set.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if s == Unknown {
		return fmt.Errorf("%d is not a valid status", s)
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return fmt.Errorf("%d is not a valid status", s)
	}
	return nil
}

// IsTerminal reports whether the status accepts no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanTransitionTo reports whether moving from s to target is legal according
// to the adjacency table. Side effects: none; safe for concurrent use without
// locking since the machine holds no mutable state.
func (s Status) CanTransitionTo(target Status) bool {
	successors, ok := getAllowedTransitions()[s]
	if !ok {
		return false
	}

	for _, successor := range successors {
		if successor == target {
			return true
		}
	}
	return false
}

// ValidateTransition checks a status transition and returns an
// IllegalTransitionError when the adjacency table forbids it.
// This must be consulted, not bypassed, before every status write.
func ValidateTransition(from Status, to Status) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return NewIllegalTransitionError(from, to)
}

// IllegalTransitionError reports a status transition rejected by the state machine.
type IllegalTransitionError struct {
	From Status
	To   Status
}

// NewIllegalTransitionError creates an IllegalTransitionError for the given pair.
func NewIllegalTransitionError(from Status, to Status) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to}
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

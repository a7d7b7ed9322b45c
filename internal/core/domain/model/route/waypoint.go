package route

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// WaypointType distinguishes pickup stops (at a vendor) from drop-off stops
// (at a customer).
type WaypointType int

const (
	// WaypointTypeUnknown catches uninitialized WaypointType values.
	WaypointTypeUnknown WaypointType = iota

	// Pickup is a stop at the vendor where the courier collects an order.
	Pickup

	// Dropoff is a stop at the customer where the courier hands over an order.
	Dropoff
)

// String returns the name of the waypoint type.
func (t WaypointType) String() string {
	switch t {
	case Pickup:
		return "pickup"
	case Dropoff:
		return "dropoff"
	default:
		return "unknown"
	}
}

// Validate checks if the WaypointType is one of the defined values.
func (t WaypointType) Validate() error {
	if t != Pickup && t != Dropoff {
		return errs.NewValueIsInvalidErrorWithCause("waypoint type is invalid",
			fmt.Errorf("%d is not a valid waypoint type", t))
	}
	return nil
}

// ErrWaypointIsNotConstructed is returned when using a zero-value Waypoint.
var ErrWaypointIsNotConstructed = errors.New("Waypoint must be created via NewWaypoint constructor")

// Waypoint is a single stop in an optimized route, tied to exactly one order.
// Sequence numbers are contiguous from 1 and unique within a route; a pickup
// waypoint always carries a strictly smaller sequence than its order's
// drop-off waypoint.
//
// Waypoint is immutable; resequencing produces new values via WithSequence.
type Waypoint struct {
	id                       kernel.UUID
	orderID                  kernel.UUID
	waypointType             WaypointType
	location                 kernel.Location
	sequence                 int
	estimatedArrival         time.Time
	estimatedServiceDuration time.Duration
	isConstructed            bool
}

// NewWaypoint creates a validated waypoint. Sequence must be >= 1.
func NewWaypoint(
	id kernel.UUID,
	orderID kernel.UUID,
	waypointType WaypointType,
	location kernel.Location,
	sequence int,
	estimatedArrival time.Time,
	estimatedServiceDuration time.Duration,
) (Waypoint, error) {
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		waypointType.Validate(),
		location.Validate(),
	); err != nil {
		return Waypoint{}, err
	}

	if sequence < 1 {
		return Waypoint{}, errs.NewValueIsInvalidErrorWithCause("sequence is invalid",
			fmt.Errorf("%d is not greater than 0", sequence))
	}

	if estimatedServiceDuration < 0 {
		return Waypoint{}, errs.NewValueIsInvalidErrorWithCause("service duration is invalid",
			fmt.Errorf("%s is negative", estimatedServiceDuration))
	}

	return Waypoint{
		id:                       id,
		orderID:                  orderID,
		waypointType:             waypointType,
		location:                 location,
		sequence:                 sequence,
		estimatedArrival:         estimatedArrival,
		estimatedServiceDuration: estimatedServiceDuration,
		isConstructed:            true,
	}, nil
}

// Validate ensures the Waypoint was created via NewWaypoint.
func (w Waypoint) Validate() error {
	if !w.isConstructed {
		return ErrWaypointIsNotConstructed
	}
	return nil
}

// ID returns the waypoint's unique identifier.
func (w Waypoint) ID() kernel.UUID {
	return w.id
}

// OrderID returns the identifier of the order this stop belongs to.
func (w Waypoint) OrderID() kernel.UUID {
	return w.orderID
}

// Type returns whether the waypoint is a pickup or a drop-off.
func (w Waypoint) Type() WaypointType {
	return w.waypointType
}

// Location returns the geographic position of the stop.
func (w Waypoint) Location() kernel.Location {
	return w.location
}

// Sequence returns the 1-based position of the stop within its route.
func (w Waypoint) Sequence() int {
	return w.sequence
}

// EstimatedArrival returns the predicted arrival time at the stop.
func (w Waypoint) EstimatedArrival() time.Time {
	return w.estimatedArrival
}

// EstimatedServiceDuration returns the predicted time spent at the stop.
func (w Waypoint) EstimatedServiceDuration() time.Duration {
	return w.estimatedServiceDuration
}

// WithSequence returns a copy of the waypoint holding a new sequence number
// and arrival estimate. Used by reoptimization, which never mutates waypoints
// in place.
func (w Waypoint) WithSequence(sequence int, estimatedArrival time.Time) (Waypoint, error) {
	return NewWaypoint(
		w.id, w.orderID, w.waypointType, w.location,
		sequence, estimatedArrival, w.estimatedServiceDuration,
	)
}

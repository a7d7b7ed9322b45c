package route

import (
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// TrafficSeverity grades ambient traffic conditions. Values are ordered:
// comparisons with >= express "at least this bad".
type TrafficSeverity int

const (
	// TrafficUnknown catches uninitialized severity values.
	TrafficUnknown TrafficSeverity = iota

	// TrafficLight is free-flowing traffic.
	TrafficLight

	// TrafficModerate is slower than free flow but not disruptive.
	TrafficModerate

	// TrafficHeavy indicates significant congestion worth reacting to.
	TrafficHeavy

	// TrafficSevere indicates blocked or near-blocked roads.
	TrafficSevere
)

// String returns the name of the severity grade.
func (s TrafficSeverity) String() string {
	switch s {
	case TrafficLight:
		return "light"
	case TrafficModerate:
		return "moderate"
	case TrafficHeavy:
		return "heavy"
	case TrafficSevere:
		return "severe"
	default:
		return "unknown"
	}
}

// ParseTrafficSeverity converts a severity string to a TrafficSeverity.
func ParseTrafficSeverity(s string) (TrafficSeverity, error) {
	switch s {
	case "light":
		return TrafficLight, nil
	case "moderate":
		return TrafficModerate, nil
	case "heavy":
		return TrafficHeavy, nil
	case "severe":
		return TrafficSevere, nil
	default:
		return TrafficUnknown, fmt.Errorf("%q is not a valid traffic severity", s)
	}
}

// EventType classifies route events used as reoptimization evidence.
type EventType int

const (
	// EventTypeUnknown catches uninitialized event types.
	EventTypeUnknown EventType = iota

	// TrafficIncident reports congestion or a blockage on a route leg.
	TrafficIncident

	// PreparationDelay reports a vendor pushing back an order's ready window.
	PreparationDelay

	// WaypointCompleted reports the courier finishing a stop.
	WaypointCompleted

	// OrderAdded reports an order joining the batch mid-flight.
	OrderAdded

	// OrderRemoved reports an order leaving the batch mid-flight.
	OrderRemoved
)

// String returns the name of the event type.
func (t EventType) String() string {
	switch t {
	case TrafficIncident:
		return "traffic_incident"
	case PreparationDelay:
		return "preparation_delay"
	case WaypointCompleted:
		return "waypoint_completed"
	case OrderAdded:
		return "order_added"
	case OrderRemoved:
		return "order_removed"
	default:
		return "unknown"
	}
}

// Validate checks if the EventType is one of the defined values.
func (t EventType) Validate() error {
	if t < TrafficIncident || t > OrderRemoved {
		return errs.NewValueIsInvalidErrorWithCause("event type is invalid",
			fmt.Errorf("%d is not a valid event type", t))
	}
	return nil
}

// Event is a single piece of reoptimization evidence tied to a route.
// Events live only in the coordinator's bounded in-process window; they are
// never persisted. The payload fields are populated per type: Severity for
// TrafficIncident, Delay for PreparationDelay, WaypointID for
// WaypointCompleted, OrderID for OrderAdded/OrderRemoved.
type Event struct {
	ID        kernel.UUID
	RouteID   kernel.UUID
	Type      EventType
	Timestamp time.Time

	Severity   TrafficSeverity
	Delay      time.Duration
	WaypointID kernel.UUID
	OrderID    kernel.UUID
}

// NewTrafficIncidentEvent creates a TrafficIncident event for a route.
func NewTrafficIncidentEvent(routeID kernel.UUID, severity TrafficSeverity, at time.Time) Event {
	return Event{
		ID:        kernel.NewUUID(),
		RouteID:   routeID,
		Type:      TrafficIncident,
		Timestamp: at,
		Severity:  severity,
	}
}

// NewPreparationDelayEvent creates a PreparationDelay event for a route.
func NewPreparationDelayEvent(routeID kernel.UUID, delay time.Duration, at time.Time) Event {
	return Event{
		ID:        kernel.NewUUID(),
		RouteID:   routeID,
		Type:      PreparationDelay,
		Timestamp: at,
		Delay:     delay,
	}
}

// NewWaypointCompletedEvent creates a WaypointCompleted event for a route.
func NewWaypointCompletedEvent(routeID kernel.UUID, waypointID kernel.UUID, at time.Time) Event {
	return Event{
		ID:         kernel.NewUUID(),
		RouteID:    routeID,
		Type:       WaypointCompleted,
		Timestamp:  at,
		WaypointID: waypointID,
	}
}

// NewOrderAddedEvent creates an OrderAdded event for a route.
func NewOrderAddedEvent(routeID kernel.UUID, orderID kernel.UUID, at time.Time) Event {
	return Event{
		ID:        kernel.NewUUID(),
		RouteID:   routeID,
		Type:      OrderAdded,
		Timestamp: at,
		OrderID:   orderID,
	}
}

// NewOrderRemovedEvent creates an OrderRemoved event for a route.
func NewOrderRemovedEvent(routeID kernel.UUID, orderID kernel.UUID, at time.Time) Event {
	return Event{
		ID:        kernel.NewUUID(),
		RouteID:   routeID,
		Type:      OrderRemoved,
		Timestamp: at,
		OrderID:   orderID,
	}
}

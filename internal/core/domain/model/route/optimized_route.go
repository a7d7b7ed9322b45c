package route

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// ErrOptimizedRouteIsNotConstructed is returned when using a zero-value OptimizedRoute.
var ErrOptimizedRouteIsNotConstructed = errors.New(
	"OptimizedRoute must be created via NewOptimizedRoute constructor")

// ErrInfeasibleRoute is returned by the optimizer when no stop ordering
// satisfies the precedence constraints, for example a drop-off whose pickup
// is missing from the candidate set.
var ErrInfeasibleRoute = errors.New("no feasible stop ordering exists")

// OptimizedRoute is an ordered waypoint sequence produced by the optimizer,
// together with its aggregate metrics and the criteria it was optimized under.
//
// OptimizedRoute is immutable once constructed; reoptimization produces a new
// value, never a mutation. The constructor enforces the route invariants:
//   - Sequence numbers form a bijection onto 1..N
//   - For every order, its pickup precedes its drop-off
//   - The optimization score lies in [0, 1]
type OptimizedRoute struct {
	id                kernel.UUID
	batchID           kernel.UUID
	waypoints         []Waypoint
	totalDistanceKm   float64
	totalDuration     time.Duration
	durationInTraffic time.Duration
	optimizationScore float64
	criteria          Criteria
	calculatedAt      time.Time
	trafficCondition  TrafficSeverity
	isConstructed     bool
}

// NewOptimizedRoute creates a validated, immutable route.
// Returns an error if any route invariant is violated.
func NewOptimizedRoute(
	id kernel.UUID,
	batchID kernel.UUID,
	waypoints []Waypoint,
	totalDistanceKm float64,
	totalDuration time.Duration,
	durationInTraffic time.Duration,
	optimizationScore float64,
	criteria Criteria,
	calculatedAt time.Time,
	trafficCondition TrafficSeverity,
) (*OptimizedRoute, error) {
	if err := errors.Join(id.Validate(), batchID.Validate(), criteria.Validate()); err != nil {
		return nil, err
	}

	if optimizationScore < 0 || optimizationScore > 1 {
		return nil, errs.NewValueIsOutOfRangeError("optimization score", optimizationScore, 0.0, 1.0)
	}

	if totalDistanceKm < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("total distance is invalid",
			fmt.Errorf("%f is negative", totalDistanceKm))
	}

	if err := validateWaypointSequence(waypoints); err != nil {
		return nil, err
	}

	owned := make([]Waypoint, len(waypoints))
	copy(owned, waypoints)

	return &OptimizedRoute{
		id:                id,
		batchID:           batchID,
		waypoints:         owned,
		totalDistanceKm:   totalDistanceKm,
		totalDuration:     totalDuration,
		durationInTraffic: durationInTraffic,
		optimizationScore: optimizationScore,
		criteria:          criteria,
		calculatedAt:      calculatedAt,
		trafficCondition:  trafficCondition,
		isConstructed:     true,
	}, nil
}

// validateWaypointSequence enforces the total-order and precedence invariants:
// sequences are exactly 1..N with no duplicates, and every order's pickup
// comes strictly before its drop-off.
func validateWaypointSequence(waypoints []Waypoint) error {
	seen := make(map[int]bool, len(waypoints))
	pickupSeq := make(map[kernel.UUID]int)
	dropoffSeq := make(map[kernel.UUID]int)

	for _, w := range waypoints {
		if err := w.Validate(); err != nil {
			return err
		}

		seq := w.Sequence()
		if seq < 1 || seq > len(waypoints) {
			return errs.NewValueIsOutOfRangeError("waypoint sequence", seq, 1, len(waypoints))
		}
		if seen[seq] {
			return errs.NewValueIsInvalidErrorWithCause("waypoint sequence is invalid",
				fmt.Errorf("sequence %d appears more than once", seq))
		}
		seen[seq] = true

		switch w.Type() {
		case Pickup:
			pickupSeq[w.OrderID()] = seq
		case Dropoff:
			dropoffSeq[w.OrderID()] = seq
		}
	}

	for orderID, dropSeq := range dropoffSeq {
		pickSeq, ok := pickupSeq[orderID]
		if !ok {
			continue
		}
		if pickSeq >= dropSeq {
			return errs.NewValueIsInvalidErrorWithCause("waypoint precedence is invalid",
				fmt.Errorf("order %s pickup sequence %d is not before dropoff sequence %d",
					orderID, pickSeq, dropSeq))
		}
	}

	return nil
}

// Validate ensures the route was created via NewOptimizedRoute.
func (r *OptimizedRoute) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrOptimizedRouteIsNotConstructed
	}
	return nil
}

// ID returns the route's unique identifier.
func (r *OptimizedRoute) ID() kernel.UUID {
	return r.id
}

// BatchID returns the identifier of the batch the route belongs to.
func (r *OptimizedRoute) BatchID() kernel.UUID {
	return r.batchID
}

// Waypoints returns a copy of the ordered waypoint sequence.
func (r *OptimizedRoute) Waypoints() []Waypoint {
	waypoints := make([]Waypoint, len(r.waypoints))
	copy(waypoints, r.waypoints)
	return waypoints
}

// WaypointCount returns the number of stops in the route.
func (r *OptimizedRoute) WaypointCount() int {
	return len(r.waypoints)
}

// WaypointByID returns the waypoint with the given id, if present.
func (r *OptimizedRoute) WaypointByID(id kernel.UUID) (Waypoint, bool) {
	for _, w := range r.waypoints {
		if w.ID().IsEqual(id) {
			return w, true
		}
	}
	return Waypoint{}, false
}

// TotalDistanceKm returns the summed leg distance of the route.
func (r *OptimizedRoute) TotalDistanceKm() float64 {
	return r.totalDistanceKm
}

// TotalDuration returns the summed leg duration without traffic.
func (r *OptimizedRoute) TotalDuration() time.Duration {
	return r.totalDuration
}

// DurationInTraffic returns the summed leg duration under current traffic.
func (r *OptimizedRoute) DurationInTraffic() time.Duration {
	return r.durationInTraffic
}

// OptimizationScore returns the normalized [0,1] quality of the route, where
// 1.0 is the theoretical best achievable under the criteria.
func (r *OptimizedRoute) OptimizationScore() float64 {
	return r.optimizationScore
}

// Criteria returns the criteria vector the route was optimized under.
func (r *OptimizedRoute) Criteria() Criteria {
	return r.criteria
}

// CalculatedAt returns when the route was computed.
func (r *OptimizedRoute) CalculatedAt() time.Time {
	return r.calculatedAt
}

// TrafficCondition returns the ambient traffic grade at calculation time.
func (r *OptimizedRoute) TrafficCondition() TrafficSeverity {
	return r.trafficCondition
}

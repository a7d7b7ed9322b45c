package services

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
)

// RouteUpdate is the result of a worthwhile reoptimization: the full waypoint
// sequence (frozen completed head plus re-sequenced remainder) with the
// metrics of the still-to-drive portion.
type RouteUpdate struct {
	UpdatedWaypoints     []route.Waypoint
	NewOptimizationScore float64

	TotalDistanceKm   float64
	TotalDuration     time.Duration
	DurationInTraffic time.Duration
	TrafficCondition  route.TrafficSeverity
}

// BuildRoute materializes the update into a fresh OptimizedRoute for the
// batch to absorb.
func (u *RouteUpdate) BuildRoute(
	batchID kernel.UUID,
	criteria route.Criteria,
	calculatedAt time.Time,
) (*route.OptimizedRoute, error) {
	return route.NewOptimizedRoute(
		kernel.NewUUID(),
		batchID,
		u.UpdatedWaypoints,
		u.TotalDistanceKm,
		u.TotalDuration,
		u.DurationInTraffic,
		u.NewOptimizationScore,
		criteria,
		calculatedAt,
		u.TrafficCondition,
	)
}

// AdjustmentOutcome classifies the result of a dynamic route adjustment.
type AdjustmentOutcome int

const (
	// NoAdjustmentNeeded means the current route is already good enough.
	NoAdjustmentNeeded AdjustmentOutcome = iota
	// Adjusted means a better route was found and is carried in the result.
	Adjusted
	// AdjustmentFailed means the recomputation could not run, typically a
	// provider timeout. The previously accepted route stays in force.
	AdjustmentFailed
)

// AdjustmentResult is the outcome of CalculateDynamicRouteAdjustment.
// Update is non-nil only for Adjusted; FailureReason only for AdjustmentFailed.
type AdjustmentResult struct {
	Outcome       AdjustmentOutcome
	Update        *RouteUpdate
	FailureReason string
}

// RealTimeConditions are ambient signals folded into a dynamic adjustment,
// as opposed to discrete events accumulated in the coordinator's window.
type RealTimeConditions struct {
	Traffic route.TrafficSeverity

	// WeatherImpact is an extra fractional slowdown on leg durations,
	// 0 meaning clear conditions and 0.2 meaning 20% slower.
	WeatherImpact float64

	PreparationDelay time.Duration

	AddedOrders     []AddedOrder
	RemovedOrderIDs []kernel.UUID
}

// AddedOrder is a mid-batch order addition with its predicted ready window.
type AddedOrder struct {
	Order  *order.Order
	Window ports.PreparationWindow
}

// ReoptimizeRoute recomputes the not-yet-completed portion of an accepted
// route in light of recent disruptive events. Completed waypoints are frozen
// in place at the head of the new sequence; only the remainder is
// re-sequenced, with traffic incidents inflating leg costs and preparation
// delays shifting vendor ready windows.
//
// Returns nil when fewer than two waypoints remain or when the recomputed
// score does not beat the accepted score by ReoptimizationImprovementMargin.
// The accepted route is never mutated; the caller decides whether to adopt
// the update.
func (ro *RouteOptimizer) ReoptimizeRoute(
	ctx context.Context,
	currentRoute *route.OptimizedRoute,
	progress *route.Progress,
	recentEvents []route.Event,
	now time.Time,
) (*RouteUpdate, error) {
	if err := ro.Validate(); err != nil {
		return nil, err
	}
	if err := currentRoute.Validate(); err != nil {
		return nil, err
	}
	if err := progress.Validate(); err != nil {
		return nil, err
	}

	completed, remaining := splitByCompletion(currentRoute.Waypoints(), func(id kernel.UUID) bool {
		return progress.IsCompleted(id)
	})
	if len(remaining) < 2 {
		return nil, nil
	}

	trafficFactor := severityTrafficFactor(maxIncidentSeverity(recentEvents))
	delayShift := totalPreparationDelay(recentEvents)

	origin := originOf(completed, remaining)
	stops := stopsFromWaypoints(remaining, delayShift)

	update, changedOrder, err := ro.resequence(ctx, origin, stops, remaining, completed,
		currentRoute.Criteria(), trafficFactor, now)
	if err != nil {
		return nil, err
	}

	if !changedOrder ||
		update.NewOptimizationScore <= currentRoute.OptimizationScore()+ReoptimizationImprovementMargin {
		return nil, nil
	}
	return update, nil
}

// CalculateDynamicRouteAdjustment folds ambient condition signals into the
// reoptimization pathway for live monitoring. Unlike ReoptimizeRoute it knows
// the courier's actual position and supports mid-batch order changes: removed
// orders drop their remaining stops, added orders contribute fresh pickup and
// drop-off stops. Structural changes are always adopted; otherwise the usual
// improvement margin applies.
//
// A collaborator failure never propagates as an error: the result is
// AdjustmentFailed with the reason, and the previously accepted route stays
// the last known good one.
func (ro *RouteOptimizer) CalculateDynamicRouteAdjustment(
	ctx context.Context,
	currentRoute *route.OptimizedRoute,
	currentDriverLocation kernel.Location,
	completedWaypointIDs []kernel.UUID,
	conditions RealTimeConditions,
	now time.Time,
) AdjustmentResult {
	if err := ro.Validate(); err != nil {
		return failedAdjustment(err)
	}
	if err := currentRoute.Validate(); err != nil {
		return failedAdjustment(err)
	}
	if err := currentDriverLocation.Validate(); err != nil {
		return failedAdjustment(err)
	}

	completedSet := make(map[kernel.UUID]bool, len(completedWaypointIDs))
	for _, id := range completedWaypointIDs {
		completedSet[id] = true
	}
	removedSet := make(map[kernel.UUID]bool, len(conditions.RemovedOrderIDs))
	for _, id := range conditions.RemovedOrderIDs {
		removedSet[id] = true
	}

	completed, remaining := splitByCompletion(currentRoute.Waypoints(), func(id kernel.UUID) bool {
		return completedSet[id]
	})

	kept := make([]route.Waypoint, 0, len(remaining))
	for _, w := range remaining {
		if !removedSet[w.OrderID()] {
			kept = append(kept, w)
		}
	}
	changedStructure := len(kept) != len(remaining) || len(conditions.AddedOrders) > 0

	stops := stopsFromWaypoints(kept, conditions.PreparationDelay)
	for _, added := range conditions.AddedOrders {
		if err := added.Order.Validate(); err != nil {
			return failedAdjustment(err)
		}
		stops = append(stops,
			stop{
				waypointID:      kernel.NewUUID(),
				orderID:         added.Order.ID(),
				kind:            route.Pickup,
				location:        added.Order.PickupLocation(),
				readyFrom:       added.Window.ReadyFrom,
				readyTo:         added.Window.ReadyTo,
				hasWindow:       true,
				serviceDuration: pickupServiceDuration,
				insertionIndex:  len(stops),
			},
			stop{
				waypointID:      kernel.NewUUID(),
				orderID:         added.Order.ID(),
				kind:            route.Dropoff,
				location:        added.Order.DropoffLocation(),
				serviceDuration: dropoffServiceDuration,
				insertionIndex:  len(stops) + 1,
			},
		)
	}

	if len(stops) == 0 {
		return AdjustmentResult{Outcome: NoAdjustmentNeeded}
	}

	trafficFactor := severityTrafficFactor(conditions.Traffic)
	if conditions.WeatherImpact > 0 {
		trafficFactor *= 1 + conditions.WeatherImpact
	}

	update, changedOrder, err := ro.resequence(ctx, currentDriverLocation, stops, kept, completed,
		currentRoute.Criteria(), trafficFactor, now)
	if err != nil {
		return failedAdjustment(err)
	}

	if !changedStructure {
		if !changedOrder ||
			update.NewOptimizationScore <= currentRoute.OptimizationScore()+ReoptimizationImprovementMargin {
			return AdjustmentResult{Outcome: NoAdjustmentNeeded}
		}
	}
	return AdjustmentResult{Outcome: Adjusted, Update: update}
}

func failedAdjustment(err error) AdjustmentResult {
	return AdjustmentResult{Outcome: AdjustmentFailed, FailureReason: err.Error()}
}

// resequence runs the greedy core over the given stops and assembles a
// RouteUpdate with the completed head frozen in front. changedStructure
// reports whether the visit order of the re-sequenced stops differs from the
// order they currently hold.
func (ro *RouteOptimizer) resequence(
	ctx context.Context,
	origin kernel.Location,
	stops []stop,
	priorOrder []route.Waypoint,
	completed []route.Waypoint,
	criteria route.Criteria,
	trafficFactor float64,
	departAt time.Time,
) (*RouteUpdate, bool, error) {
	legs, err := ro.resolveLegMatrix(ctx, origin, stops)
	if err != nil {
		return nil, false, err
	}

	selected, err := greedySequence(stops, legs, criteria, departAt, trafficFactor)
	if err != nil {
		return nil, false, err
	}

	chosen := walkSequence(selected, stops, legs, departAt, trafficFactor)
	baseline := walkSequence(fifoSequence(stops), stops, legs, departAt, trafficFactor)
	score := optimizationScore(criteria, chosen, baseline)

	waypoints := make([]route.Waypoint, 0, len(completed)+len(selected))
	for i, w := range completed {
		frozen, err := w.WithSequence(i+1, w.EstimatedArrival())
		if err != nil {
			return nil, false, err
		}
		waypoints = append(waypoints, frozen)
	}
	for position, i := range selected {
		resequenced, err := route.NewWaypoint(
			stops[i].waypointID,
			stops[i].orderID,
			stops[i].kind,
			stops[i].location,
			len(completed)+position+1,
			chosen.arrivals[position],
			stops[i].serviceDuration,
		)
		if err != nil {
			return nil, false, err
		}
		waypoints = append(waypoints, resequenced)
	}

	changedOrder := false
	for position, i := range selected {
		if position >= len(priorOrder) || !stops[i].waypointID.IsEqual(priorOrder[position].ID()) {
			changedOrder = true
			break
		}
	}

	return &RouteUpdate{
		UpdatedWaypoints:     waypoints,
		NewOptimizationScore: score,
		TotalDistanceKm:      chosen.distanceKm,
		TotalDuration:        chosen.duration,
		DurationInTraffic:    chosen.durationInTraffic,
		TrafficCondition:     trafficConditionOf(chosen),
	}, changedOrder, nil
}

// splitByCompletion partitions waypoints into the completed head and the
// remainder, both preserving their current relative order.
func splitByCompletion(
	waypoints []route.Waypoint,
	isCompleted func(kernel.UUID) bool,
) (completed, remaining []route.Waypoint) {
	for _, w := range waypoints {
		if isCompleted(w.ID()) {
			completed = append(completed, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	return completed, remaining
}

// originOf picks the reference position for re-sequencing: the last completed
// waypoint, or the head of the remainder when nothing completed yet.
func originOf(completed, remaining []route.Waypoint) kernel.Location {
	if len(completed) > 0 {
		return completed[len(completed)-1].Location()
	}
	return remaining[0].Location()
}

// stopsFromWaypoints rebuilds candidate stops from surviving waypoints.
// Pickups anchor their ready window on the previously estimated arrival,
// shifted by any accumulated preparation delay.
func stopsFromWaypoints(waypoints []route.Waypoint, delayShift time.Duration) []stop {
	stops := make([]stop, 0, len(waypoints))
	for i, w := range waypoints {
		s := stop{
			waypointID:      w.ID(),
			orderID:         w.OrderID(),
			kind:            w.Type(),
			location:        w.Location(),
			serviceDuration: w.EstimatedServiceDuration(),
			insertionIndex:  i,
		}
		if w.Type() == route.Pickup {
			s.readyFrom = w.EstimatedArrival().Add(delayShift)
			s.readyTo = s.readyFrom.Add(reoptimizeReadyWindowSpan)
			s.hasWindow = true
		}
		stops = append(stops, s)
	}
	return stops
}

func maxIncidentSeverity(events []route.Event) route.TrafficSeverity {
	severity := route.TrafficLight
	for _, e := range events {
		if e.Type == route.TrafficIncident && e.Severity > severity {
			severity = e.Severity
		}
	}
	return severity
}

func totalPreparationDelay(events []route.Event) time.Duration {
	var total time.Duration
	for _, e := range events {
		if e.Type == route.PreparationDelay {
			total += e.Delay
		}
	}
	return total
}

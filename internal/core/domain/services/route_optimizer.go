package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ReoptimizationImprovementMargin is the minimum score gain a recomputed route
// must show over the accepted one before it is worth adopting. Recomputations
// below the margin are treated as noise and discarded to avoid route thrashing.
const ReoptimizationImprovementMargin = 0.05

const (
	pickupServiceDuration  = 3 * time.Minute
	dropoffServiceDuration = 2 * time.Minute

	// reoptimizeReadyWindowSpan approximates a vendor ready window when
	// reoptimizing from waypoints alone, where only the previously estimated
	// arrival survives as the window anchor.
	reoptimizeReadyWindowSpan = 10 * time.Minute
)

// ErrOptimizerIsNotConstructed is returned when a RouteOptimizer instance was
// not created through the NewRouteOptimizer factory method.
var ErrOptimizerIsNotConstructed = errors.New("RouteOptimizer must be created via NewRouteOptimizer constructor")

// RouteOptimizer is a domain service that sequences pickup and drop-off stops
// for a batch of orders into a single courier route.
//
// Key responsibilities:
//   - Building the candidate stop set (one pickup + one drop-off per order)
//   - Greedy nearest-feasible selection under weighted criteria
//   - Scoring the result against a naive first-in-first-out baseline
//   - Incremental reoptimization of partially completed routes
//
// Business rules:
//   - A pickup always precedes its drop-off
//   - Pickups respect the vendor's preparation-ready window; arriving early
//     means waiting, and the wait is priced into the selection cost
//   - Sequencing itself is a synchronous pure computation: all leg costs are
//     resolved from the distance provider before the algorithm runs
type RouteOptimizer struct {
	distanceProvider ports.DistanceProvider

	isConstructed bool
}

// NewRouteOptimizer creates a RouteOptimizer backed by the given distance
// provider. The provider is the service's only collaborator; everything else
// arrives as call arguments.
func NewRouteOptimizer(distanceProvider ports.DistanceProvider) (*RouteOptimizer, error) {
	if distanceProvider == nil {
		return nil, errs.NewValueIsRequiredError("distanceProvider")
	}

	return &RouteOptimizer{
		distanceProvider: distanceProvider,
		isConstructed:    true,
	}, nil
}

// Validate ensures the optimizer was created via NewRouteOptimizer.
func (ro *RouteOptimizer) Validate() error {
	if ro == nil || !ro.isConstructed {
		return ErrOptimizerIsNotConstructed
	}
	return nil
}

// CalculateOptimalRoute sequences the given orders into an optimized route for
// a courier starting at courierLocation at departAt.
//
// The heuristic is greedy nearest-feasible insertion: at each step the next
// stop is the feasible candidate minimizing the weighted cost
//
//	cost = distanceWeight*normalizedDistance +
//	       preparationWeight*normalizedWaitTime +
//	       trafficWeight*normalizedTrafficDelay +
//	       windowWeight*normalizedLatenessRisk
//
// with every component normalized to [0,1] over the current candidate set.
// Ties break by earliest preparation-ready time, then by insertion order, so
// recomputing with identical inputs yields an identical route.
//
// Returns route.ErrInfeasibleRoute when no stop ordering satisfies precedence
// and route.ErrInvalidCriteria when the weights do not sum to 1.0.
func (ro *RouteOptimizer) CalculateOptimalRoute(
	ctx context.Context,
	batchID kernel.UUID,
	orders []*order.Order,
	courierLocation kernel.Location,
	criteria route.Criteria,
	preparationWindows map[kernel.UUID]ports.PreparationWindow,
	departAt time.Time,
) (*route.OptimizedRoute, error) {
	if err := ro.Validate(); err != nil {
		return nil, err
	}

	if err := errors.Join(batchID.Validate(), courierLocation.Validate(), criteria.Validate()); err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return nil, errs.NewValueIsRequiredError("orders")
	}

	stops := make([]stop, 0, 2*len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, err
		}

		pickup := stop{
			waypointID:      kernel.NewUUID(),
			orderID:         o.ID(),
			kind:            route.Pickup,
			location:        o.PickupLocation(),
			serviceDuration: pickupServiceDuration,
			insertionIndex:  len(stops),
		}
		if window, ok := preparationWindows[o.ID()]; ok {
			pickup.readyFrom = window.ReadyFrom
			pickup.readyTo = window.ReadyTo
			pickup.hasWindow = true
		}
		stops = append(stops, pickup)

		stops = append(stops, stop{
			waypointID:      kernel.NewUUID(),
			orderID:         o.ID(),
			kind:            route.Dropoff,
			location:        o.DropoffLocation(),
			serviceDuration: dropoffServiceDuration,
			insertionIndex:  len(stops),
		})
	}

	legs, err := ro.resolveLegMatrix(ctx, courierLocation, stops)
	if err != nil {
		return nil, err
	}

	selected, err := greedySequence(stops, legs, criteria, departAt, 1.0)
	if err != nil {
		return nil, err
	}

	chosen := walkSequence(selected, stops, legs, departAt, 1.0)
	baseline := walkSequence(fifoSequence(stops), stops, legs, departAt, 1.0)
	score := optimizationScore(criteria, chosen, baseline)

	waypoints, err := buildWaypoints(selected, stops, chosen.arrivals)
	if err != nil {
		return nil, err
	}

	return route.NewOptimizedRoute(
		kernel.NewUUID(),
		batchID,
		waypoints,
		chosen.distanceKm,
		chosen.duration,
		chosen.durationInTraffic,
		score,
		criteria,
		departAt,
		trafficConditionOf(chosen),
	)
}

// stop is an internal candidate for one route position: a pickup or drop-off
// with its optional vendor ready window.
type stop struct {
	waypointID      kernel.UUID
	orderID         kernel.UUID
	kind            route.WaypointType
	location        kernel.Location
	readyFrom       time.Time
	readyTo         time.Time
	hasWindow       bool
	serviceDuration time.Duration
	insertionIndex  int
}

// resolveLegMatrix fetches every leg cost the algorithm may need before
// sequencing starts. Index 0 is the courier origin; index i+1 is stops[i].
func (ro *RouteOptimizer) resolveLegMatrix(
	ctx context.Context,
	origin kernel.Location,
	stops []stop,
) ([][]ports.LegCost, error) {
	points := make([]kernel.Location, 0, len(stops)+1)
	points = append(points, origin)
	for _, s := range stops {
		points = append(points, s.location)
	}

	legs := make([][]ports.LegCost, len(points))
	for i := range points {
		legs[i] = make([]ports.LegCost, len(points))
		for j := range points {
			if i == j {
				continue
			}
			cost, err := ro.distanceProvider.LegCost(ctx, points[i], points[j])
			if err != nil {
				return nil, fmt.Errorf("resolve leg cost: %w", err)
			}
			legs[i][j] = cost
		}
	}
	return legs, nil
}

// greedySequence returns stop indices in visit order. trafficFactor inflates
// in-traffic leg durations to reflect disruptive events; 1.0 means none.
func greedySequence(
	stops []stop,
	legs [][]ports.LegCost,
	criteria route.Criteria,
	departAt time.Time,
	trafficFactor float64,
) ([]int, error) {
	remaining := make(map[int]bool, len(stops))
	pendingPickups := make(map[kernel.UUID]int)
	for i, s := range stops {
		remaining[i] = true
		if s.kind == route.Pickup {
			pendingPickups[s.orderID]++
		}
	}

	sequence := make([]int, 0, len(stops))
	current := 0
	now := departAt

	for len(remaining) > 0 {
		candidates := make([]int, 0, len(remaining))
		for i := range remaining {
			if stops[i].kind == route.Dropoff && pendingPickups[stops[i].orderID] > 0 {
				continue
			}
			candidates = append(candidates, i)
		}
		if len(candidates) == 0 {
			return nil, route.ErrInfeasibleRoute
		}

		best := pickBestCandidate(candidates, stops, legs, criteria, current, now, trafficFactor)

		leg := legs[current][best+1]
		arrival := now.Add(inflate(leg.DurationInTraffic, trafficFactor))
		serviceStart := arrival
		if stops[best].hasWindow && stops[best].readyFrom.After(serviceStart) {
			serviceStart = stops[best].readyFrom
		}
		now = serviceStart.Add(stops[best].serviceDuration)
		current = best + 1

		if stops[best].kind == route.Pickup {
			pendingPickups[stops[best].orderID]--
		}
		delete(remaining, best)
		sequence = append(sequence, best)
	}
	return sequence, nil
}

// pickBestCandidate scores each feasible candidate with components normalized
// over the candidate set and returns the cheapest one. Deterministic: ties
// break by earliest ready time, then by insertion order.
func pickBestCandidate(
	candidates []int,
	stops []stop,
	legs [][]ports.LegCost,
	criteria route.Criteria,
	current int,
	now time.Time,
	trafficFactor float64,
) int {
	distances := make([]float64, len(candidates))
	waits := make([]float64, len(candidates))
	trafficDelays := make([]float64, len(candidates))
	latenessRisks := make([]float64, len(candidates))

	for k, i := range candidates {
		leg := legs[current][i+1]
		travel := inflate(leg.DurationInTraffic, trafficFactor)
		arrival := now.Add(travel)

		distances[k] = leg.DistanceKm
		trafficDelays[k] = maxFloat(0, (travel - leg.Duration).Minutes())
		if stops[i].hasWindow {
			waits[k] = maxFloat(0, stops[i].readyFrom.Sub(arrival).Minutes())
			latenessRisks[k] = maxFloat(0, arrival.Sub(stops[i].readyTo).Minutes())
		}
	}

	normalize(distances)
	normalize(waits)
	normalize(trafficDelays)
	normalize(latenessRisks)

	best := -1
	bestCost := 0.0
	for k, i := range candidates {
		cost := criteria.DistanceWeight()*distances[k] +
			criteria.PreparationWeight()*waits[k] +
			criteria.TrafficWeight()*trafficDelays[k] +
			criteria.WindowWeight()*latenessRisks[k]

		if best == -1 || cost < bestCost-costTieEpsilon {
			best, bestCost = i, cost
			continue
		}
		if cost > bestCost+costTieEpsilon {
			continue
		}
		if breaksTie(stops[i], stops[best]) {
			best, bestCost = i, cost
		}
	}
	return best
}

const costTieEpsilon = 1e-9

// breaksTie reports whether candidate should replace incumbent on equal cost:
// earliest preparation-ready time first, then earliest insertion order.
func breaksTie(candidate, incumbent stop) bool {
	if candidate.hasWindow && incumbent.hasWindow && !candidate.readyFrom.Equal(incumbent.readyFrom) {
		return candidate.readyFrom.Before(incumbent.readyFrom)
	}
	if candidate.hasWindow != incumbent.hasWindow {
		return candidate.hasWindow
	}
	return candidate.insertionIndex < incumbent.insertionIndex
}

// fifoSequence is the naive baseline: stops visited in insertion order, which
// is precedence-valid because each pickup is inserted before its drop-off.
func fifoSequence(stops []stop) []int {
	sequence := make([]int, len(stops))
	for i := range stops {
		sequence[i] = i
	}
	return sequence
}

// walkTotals carries the accumulated metrics of one candidate visit order.
type walkTotals struct {
	distanceKm        float64
	duration          time.Duration
	durationInTraffic time.Duration
	waitTime          time.Duration
	trafficDelay      time.Duration
	lateness          time.Duration
	arrivals          []time.Time
}

// walkSequence simulates driving the given visit order and accumulates leg
// metrics plus per-stop arrival times.
func walkSequence(
	sequence []int,
	stops []stop,
	legs [][]ports.LegCost,
	departAt time.Time,
	trafficFactor float64,
) walkTotals {
	totals := walkTotals{arrivals: make([]time.Time, 0, len(sequence))}
	current := 0
	now := departAt

	for _, i := range sequence {
		leg := legs[current][i+1]
		travel := inflate(leg.DurationInTraffic, trafficFactor)
		arrival := now.Add(travel)

		totals.distanceKm += leg.DistanceKm
		totals.duration += leg.Duration
		totals.durationInTraffic += travel
		if travel > leg.Duration {
			totals.trafficDelay += travel - leg.Duration
		}

		serviceStart := arrival
		if stops[i].hasWindow {
			if stops[i].readyFrom.After(arrival) {
				totals.waitTime += stops[i].readyFrom.Sub(arrival)
				serviceStart = stops[i].readyFrom
			}
			if arrival.After(stops[i].readyTo) {
				totals.lateness += arrival.Sub(stops[i].readyTo)
			}
		}

		totals.arrivals = append(totals.arrivals, arrival)
		now = serviceStart.Add(stops[i].serviceDuration)
		current = i + 1
	}
	return totals
}

// weightedCost collapses walk totals into one scalar using the criteria
// weights. Distance is in kilometers, time components in minutes, so the four
// terms stay on comparable scales for typical urban batches.
func weightedCost(criteria route.Criteria, totals walkTotals) float64 {
	return criteria.DistanceWeight()*totals.distanceKm +
		criteria.PreparationWeight()*totals.waitTime.Minutes() +
		criteria.TrafficWeight()*totals.trafficDelay.Minutes() +
		criteria.WindowWeight()*totals.lateness.Minutes()
}

// optimizationScore is the normalized inverse of the chosen route's weighted
// cost relative to the baseline: the fraction of baseline cost the chosen
// ordering saves. Never negative, capped at 1.0.
func optimizationScore(criteria route.Criteria, chosen, baseline walkTotals) float64 {
	chosenCost := weightedCost(criteria, chosen)
	baselineCost := weightedCost(criteria, baseline)

	if baselineCost <= costTieEpsilon {
		if chosenCost <= costTieEpsilon {
			return 1.0
		}
		return 0.0
	}

	score := 1.0 - chosenCost/baselineCost
	if score < 0 {
		return 0.0
	}
	if score > 1 {
		return 1.0
	}
	return score
}

// buildWaypoints materializes the selected stop order into route waypoints
// with sequence numbers assigned in selection order starting at 1.
func buildWaypoints(sequence []int, stops []stop, arrivals []time.Time) ([]route.Waypoint, error) {
	waypoints := make([]route.Waypoint, 0, len(sequence))
	for position, i := range sequence {
		w, err := route.NewWaypoint(
			stops[i].waypointID,
			stops[i].orderID,
			stops[i].kind,
			stops[i].location,
			position+1,
			arrivals[position],
			stops[i].serviceDuration,
		)
		if err != nil {
			return nil, err
		}
		waypoints = append(waypoints, w)
	}
	return waypoints, nil
}

// trafficConditionOf buckets the route-level in-traffic slowdown ratio into a
// severity level for reporting.
func trafficConditionOf(totals walkTotals) route.TrafficSeverity {
	if totals.duration <= 0 {
		return route.TrafficLight
	}

	ratio := float64(totals.durationInTraffic) / float64(totals.duration)
	switch {
	case ratio < 1.05:
		return route.TrafficLight
	case ratio < 1.2:
		return route.TrafficModerate
	case ratio < 1.5:
		return route.TrafficHeavy
	default:
		return route.TrafficSevere
	}
}

// severityTrafficFactor maps an observed traffic severity onto a multiplier
// for in-traffic leg durations.
func severityTrafficFactor(severity route.TrafficSeverity) float64 {
	switch severity {
	case route.TrafficModerate:
		return 1.1
	case route.TrafficHeavy:
		return 1.3
	case route.TrafficSevere:
		return 1.6
	default:
		return 1.0
	}
}

func inflate(d time.Duration, factor float64) time.Duration {
	if factor <= 1.0 {
		return d
	}
	return time.Duration(float64(d) * factor)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// normalize scales values in place to [0,1] by the maximum. All-zero input
// stays all-zero.
func normalize(values []float64) {
	maxValue := 0.0
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue <= costTieEpsilon {
		return
	}
	for i := range values {
		values[i] /= maxValue
	}
}

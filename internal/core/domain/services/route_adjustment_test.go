package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adjustmentBase = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func waypointAt(
	t *testing.T,
	orderID kernel.UUID,
	kind route.WaypointType,
	lat float64,
	sequence int,
) route.Waypoint {
	t.Helper()

	loc, err := kernel.NewLocation(lat, 0)
	require.NoError(t, err)
	w, err := route.NewWaypoint(
		kernel.NewUUID(), orderID, kind, loc, sequence,
		adjustmentBase.Add(time.Duration(sequence)*10*time.Minute), 2*time.Minute)
	require.NoError(t, err)
	return w
}

func routeWithScore(t *testing.T, waypoints []route.Waypoint, score float64) *route.OptimizedRoute {
	t.Helper()

	r, err := route.NewOptimizedRoute(
		kernel.NewUUID(), kernel.NewUUID(), waypoints,
		15.6, 30*time.Minute, 30*time.Minute, score,
		distanceOnlyCriteria(t), adjustmentBase, route.TrafficLight)
	require.NoError(t, err)
	return r
}

// detourRoute is a route whose remaining stops are visited in a wasteful
// order: the courier crosses town for order B before delivering nearby
// order A.
func detourRoute(t *testing.T, orderA, orderB kernel.UUID) *route.OptimizedRoute {
	t.Helper()
	return routeWithScore(t, []route.Waypoint{
		waypointAt(t, orderA, route.Pickup, 0.00, 1),
		waypointAt(t, orderB, route.Pickup, 0.05, 2),
		waypointAt(t, orderA, route.Dropoff, 0.01, 3),
		waypointAt(t, orderB, route.Dropoff, 0.06, 4),
	}, 0.2)
}

// tightRoute visits the same stops in the order greedy selection would pick.
func tightRoute(t *testing.T, orderA, orderB kernel.UUID) *route.OptimizedRoute {
	t.Helper()
	return routeWithScore(t, []route.Waypoint{
		waypointAt(t, orderA, route.Pickup, 0.00, 1),
		waypointAt(t, orderA, route.Dropoff, 0.01, 2),
		waypointAt(t, orderB, route.Pickup, 0.05, 3),
		waypointAt(t, orderB, route.Dropoff, 0.06, 4),
	}, 0.2)
}

func progressAfter(t *testing.T, r *route.OptimizedRoute, completedCount int) *route.Progress {
	t.Helper()

	progress, err := route.NewProgress(r.ID(), r.WaypointCount())
	require.NoError(t, err)
	for i := 0; i < completedCount; i++ {
		w := r.Waypoints()[i]
		require.True(t, progress.MarkCompleted(w.ID(), w.Sequence(), adjustmentBase))
	}
	return progress
}

func TestRouteOptimizer_ReoptimizeRoute(t *testing.T) {
	ctx := context.Background()
	provider := straightLineProvider{speedKmh: 30, trafficFactor: 1.0}
	orderA, orderB := kernel.NewUUID(), kernel.NewUUID()

	t.Run("resequences_remaining_waypoints_when_savings_exceed_margin", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := detourRoute(t, orderA, orderB)
		progress := progressAfter(t, current, 1)

		update, err := optimizer.ReoptimizeRoute(ctx, current, progress, nil, adjustmentBase)
		require.NoError(t, err)
		require.NotNil(t, update)

		assert.Greater(t, update.NewOptimizationScore,
			current.OptimizationScore()+services.ReoptimizationImprovementMargin)

		require.Len(t, update.UpdatedWaypoints, 4)
		head := update.UpdatedWaypoints[0]
		assert.True(t, head.ID().IsEqual(current.Waypoints()[0].ID()))
		assert.Equal(t, 1, head.Sequence())

		// Nearby drop-off for order A now comes before the detour to order B.
		assert.True(t, update.UpdatedWaypoints[1].OrderID().IsEqual(orderA))
		assert.Equal(t, route.Dropoff, update.UpdatedWaypoints[1].Type())
		assert.True(t, update.UpdatedWaypoints[2].OrderID().IsEqual(orderB))
		assert.True(t, update.UpdatedWaypoints[3].OrderID().IsEqual(orderB))

		for i, w := range update.UpdatedWaypoints {
			assert.Equal(t, i+1, w.Sequence())
		}
	})

	t.Run("completed_waypoints_keep_their_identity_and_order", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := detourRoute(t, orderA, orderB)
		progress := progressAfter(t, current, 1)

		update, err := optimizer.ReoptimizeRoute(ctx, current, progress, nil, adjustmentBase)
		require.NoError(t, err)
		require.NotNil(t, update)

		rebuilt, err := update.BuildRoute(current.BatchID(), current.Criteria(), adjustmentBase)
		require.NoError(t, err)

		frozen, ok := rebuilt.WaypointByID(current.Waypoints()[0].ID())
		require.True(t, ok)
		assert.Equal(t, 1, frozen.Sequence())
	})

	t.Run("severe_incident_inflates_reported_traffic_condition", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := detourRoute(t, orderA, orderB)
		progress := progressAfter(t, current, 1)
		events := []route.Event{
			route.NewTrafficIncidentEvent(current.ID(), route.TrafficSevere, adjustmentBase),
		}

		update, err := optimizer.ReoptimizeRoute(ctx, current, progress, events, adjustmentBase)
		require.NoError(t, err)
		require.NotNil(t, update)

		assert.Equal(t, route.TrafficSevere, update.TrafficCondition)
		assert.Greater(t, update.DurationInTraffic, update.TotalDuration)
	})

	t.Run("returns_nil_when_current_order_is_already_optimal", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := tightRoute(t, orderA, orderB)
		progress := progressAfter(t, current, 1)

		update, err := optimizer.ReoptimizeRoute(ctx, current, progress, nil, adjustmentBase)
		require.NoError(t, err)
		assert.Nil(t, update)
	})

	t.Run("returns_nil_when_fewer_than_two_waypoints_remain", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := tightRoute(t, orderA, orderB)
		progress := progressAfter(t, current, 3)

		update, err := optimizer.ReoptimizeRoute(ctx, current, progress, nil, adjustmentBase)
		require.NoError(t, err)
		assert.Nil(t, update)
	})
}

func TestRouteOptimizer_CalculateDynamicRouteAdjustment(t *testing.T) {
	ctx := context.Background()
	provider := straightLineProvider{speedKmh: 30, trafficFactor: 1.0}
	orderA, orderB := kernel.NewUUID(), kernel.NewUUID()

	driverAt := func(t *testing.T, lat float64) kernel.Location {
		t.Helper()
		loc, err := kernel.NewLocation(lat, 0)
		require.NoError(t, err)
		return loc
	}

	t.Run("no_adjustment_when_conditions_are_benign", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := tightRoute(t, orderA, orderB)

		result := optimizer.CalculateDynamicRouteAdjustment(
			ctx, current, driverAt(t, 0), nil, services.RealTimeConditions{}, adjustmentBase)

		assert.Equal(t, services.NoAdjustmentNeeded, result.Outcome)
		assert.Nil(t, result.Update)
	})

	t.Run("adjusts_when_savings_exceed_margin", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := detourRoute(t, orderA, orderB)
		completed := []kernel.UUID{current.Waypoints()[0].ID()}

		result := optimizer.CalculateDynamicRouteAdjustment(
			ctx, current, driverAt(t, 0), completed, services.RealTimeConditions{}, adjustmentBase)

		require.Equal(t, services.Adjusted, result.Outcome)
		require.NotNil(t, result.Update)
		assert.True(t, result.Update.UpdatedWaypoints[1].OrderID().IsEqual(orderA))
	})

	t.Run("removing_an_order_always_adjusts", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := tightRoute(t, orderA, orderB)
		conditions := services.RealTimeConditions{RemovedOrderIDs: []kernel.UUID{orderB}}

		result := optimizer.CalculateDynamicRouteAdjustment(
			ctx, current, driverAt(t, 0), nil, conditions, adjustmentBase)

		require.Equal(t, services.Adjusted, result.Outcome)
		require.NotNil(t, result.Update)
		require.Len(t, result.Update.UpdatedWaypoints, 2)
		for _, w := range result.Update.UpdatedWaypoints {
			assert.True(t, w.OrderID().IsEqual(orderA))
		}
	})

	t.Run("adding_an_order_always_adjusts", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		current := tightRoute(t, orderA, orderB)

		added := testOrder(t, 0.02, 0.03)
		conditions := services.RealTimeConditions{
			AddedOrders: []services.AddedOrder{{
				Order: added,
				Window: ports.PreparationWindow{
					ReadyFrom: adjustmentBase,
					ReadyTo:   adjustmentBase.Add(time.Hour),
				},
			}},
		}

		result := optimizer.CalculateDynamicRouteAdjustment(
			ctx, current, driverAt(t, 0), nil, conditions, adjustmentBase)

		require.Equal(t, services.Adjusted, result.Outcome)
		require.NotNil(t, result.Update)
		require.Len(t, result.Update.UpdatedWaypoints, 6)

		// The rebuilt route must still satisfy every sequencing invariant.
		_, err := result.Update.BuildRoute(current.BatchID(), current.Criteria(), adjustmentBase)
		require.NoError(t, err)
	})

	t.Run("provider_failure_keeps_last_known_good_route", func(t *testing.T) {
		optimizer := testOptimizer(t, failingProvider{err: errors.New("upstream timeout")})
		current := detourRoute(t, orderA, orderB)

		result := optimizer.CalculateDynamicRouteAdjustment(
			ctx, current, driverAt(t, 0), nil, services.RealTimeConditions{}, adjustmentBase)

		assert.Equal(t, services.AdjustmentFailed, result.Outcome)
		assert.Nil(t, result.Update)
		assert.NotEmpty(t, result.FailureReason)
	})
}

package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// straightLineProvider derives leg costs from great-circle distance at a
// constant speed, optionally inflated by a uniform traffic factor.
type straightLineProvider struct {
	speedKmh      float64
	trafficFactor float64
}

func (p straightLineProvider) LegCost(_ context.Context, from, to kernel.Location) (ports.LegCost, error) {
	km, err := from.DistanceKmTo(to)
	if err != nil {
		return ports.LegCost{}, err
	}

	duration := time.Duration(km / p.speedKmh * float64(time.Hour))
	return ports.LegCost{
		DistanceKm:        km,
		Duration:          duration,
		DurationInTraffic: time.Duration(float64(duration) * p.trafficFactor),
	}, nil
}

type failingProvider struct {
	err error
}

func (p failingProvider) LegCost(context.Context, kernel.Location, kernel.Location) (ports.LegCost, error) {
	return ports.LegCost{}, p.err
}

func testOptimizer(t *testing.T, provider ports.DistanceProvider) *services.RouteOptimizer {
	t.Helper()
	optimizer, err := services.NewRouteOptimizer(provider)
	require.NoError(t, err)
	return optimizer
}

func testOrder(t *testing.T, pickupLat, dropoffLat float64) *order.Order {
	t.Helper()
	pickup, err := kernel.NewLocation(pickupLat, 0)
	require.NoError(t, err)
	dropoff, err := kernel.NewLocation(dropoffLat, 0)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), pickup, dropoff, 25)
	require.NoError(t, err)
	return o
}

func distanceOnlyCriteria(t *testing.T) route.Criteria {
	t.Helper()
	criteria, err := route.NewCriteria(1, 0, 0, 0)
	require.NoError(t, err)
	return criteria
}

// bruteForceMinDistance enumerates every precedence-valid visit order over the
// orders' stops and returns the shortest total path length from the origin.
func bruteForceMinDistance(t *testing.T, origin kernel.Location, orders []*order.Order) float64 {
	t.Helper()

	type bfStop struct {
		orderIndex int
		isPickup   bool
		location   kernel.Location
	}
	stops := make([]bfStop, 0, 2*len(orders))
	for i, o := range orders {
		stops = append(stops,
			bfStop{orderIndex: i, isPickup: true, location: o.PickupLocation()},
			bfStop{orderIndex: i, isPickup: false, location: o.DropoffLocation()},
		)
	}

	best := -1.0
	used := make([]bool, len(stops))
	pickedUp := make([]bool, len(orders))

	var visit func(current kernel.Location, traveled float64, placed int)
	visit = func(current kernel.Location, traveled float64, placed int) {
		if placed == len(stops) {
			if best < 0 || traveled < best {
				best = traveled
			}
			return
		}
		for i, s := range stops {
			if used[i] || (!s.isPickup && !pickedUp[s.orderIndex]) {
				continue
			}
			leg, err := current.DistanceKmTo(s.location)
			require.NoError(t, err)

			used[i] = true
			if s.isPickup {
				pickedUp[s.orderIndex] = true
			}
			visit(s.location, traveled+leg, placed+1)
			if s.isPickup {
				pickedUp[s.orderIndex] = false
			}
			used[i] = false
		}
	}
	visit(origin, 0, 0)

	require.GreaterOrEqual(t, best, 0.0)
	return best
}

func TestRouteOptimizer_CalculateOptimalRoute(t *testing.T) {
	ctx := context.Background()
	departAt := time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC)
	provider := straightLineProvider{speedKmh: 30, trafficFactor: 1.0}

	origin, err := kernel.NewLocation(0, 0)
	require.NoError(t, err)

	t.Run("matches_brute_force_minimum_for_three_orders", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)

		// Deliberately shuffled input so the naive baseline is suboptimal.
		orders := []*order.Order{
			testOrder(t, 0.03, 0.04),
			testOrder(t, 0.05, 0.06),
			testOrder(t, 0.01, 0.02),
		}

		optimized, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), orders, origin, distanceOnlyCriteria(t), nil, departAt)
		require.NoError(t, err)

		want := bruteForceMinDistance(t, origin, orders)
		assert.InDelta(t, want, optimized.TotalDistanceKm(), 1e-6)
		assert.Greater(t, optimized.OptimizationScore(), 0.0)
		assert.LessOrEqual(t, optimized.OptimizationScore(), 1.0)
	})

	t.Run("every_pickup_precedes_its_dropoff", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		orders := []*order.Order{
			testOrder(t, 0.04, 0.01),
			testOrder(t, 0.02, 0.05),
			testOrder(t, 0.06, 0.03),
		}

		optimized, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), orders, origin, route.DefaultCriteria(), nil, departAt)
		require.NoError(t, err)

		pickupSeq := make(map[kernel.UUID]int)
		for _, w := range optimized.Waypoints() {
			if w.Type() == route.Pickup {
				pickupSeq[w.OrderID()] = w.Sequence()
			}
		}
		for _, w := range optimized.Waypoints() {
			if w.Type() == route.Dropoff {
				assert.Greater(t, w.Sequence(), pickupSeq[w.OrderID()])
			}
		}
	})

	t.Run("identical_inputs_yield_identical_route_and_score", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		orders := []*order.Order{
			testOrder(t, 0.03, 0.01),
			testOrder(t, 0.05, 0.02),
			testOrder(t, 0.04, 0.06),
		}
		criteria := route.DefaultCriteria()

		first, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), orders, origin, criteria, nil, departAt)
		require.NoError(t, err)
		second, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), orders, origin, criteria, nil, departAt)
		require.NoError(t, err)

		require.Equal(t, first.WaypointCount(), second.WaypointCount())
		for i := range first.Waypoints() {
			assert.True(t, first.Waypoints()[i].OrderID().IsEqual(second.Waypoints()[i].OrderID()))
			assert.Equal(t, first.Waypoints()[i].Type(), second.Waypoints()[i].Type())
		}
		assert.Equal(t, first.OptimizationScore(), second.OptimizationScore())
	})

	t.Run("prefers_ready_vendor_over_closer_waiting_vendor", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)

		waiting := testOrder(t, 0.005, 0.03)
		ready := testOrder(t, 0.02, 0.04)

		windows := map[kernel.UUID]ports.PreparationWindow{
			waiting.ID(): {ReadyFrom: departAt.Add(2 * time.Hour), ReadyTo: departAt.Add(3 * time.Hour)},
			ready.ID():   {ReadyFrom: departAt, ReadyTo: departAt.Add(time.Hour)},
		}
		criteria, err := route.NewCriteria(0.2, 0.8, 0, 0)
		require.NoError(t, err)

		optimized, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), []*order.Order{waiting, ready}, origin, criteria, windows, departAt)
		require.NoError(t, err)

		first := optimized.Waypoints()[0]
		assert.True(t, first.OrderID().IsEqual(ready.ID()))
		assert.Equal(t, route.Pickup, first.Type())
	})

	t.Run("rejects_unconstructed_criteria", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)
		orders := []*order.Order{testOrder(t, 0.01, 0.02), testOrder(t, 0.03, 0.04)}

		_, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), orders, origin, route.Criteria{}, nil, departAt)

		require.Error(t, err)
	})

	t.Run("rejects_empty_order_set", func(t *testing.T) {
		optimizer := testOptimizer(t, provider)

		_, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), nil, origin, route.DefaultCriteria(), nil, departAt)

		require.Error(t, err)
	})

	t.Run("propagates_provider_failure", func(t *testing.T) {
		providerErr := errors.New("routing service unavailable")
		optimizer := testOptimizer(t, failingProvider{err: providerErr})
		orders := []*order.Order{testOrder(t, 0.01, 0.02), testOrder(t, 0.03, 0.04)}

		_, err := optimizer.CalculateOptimalRoute(
			ctx, kernel.NewUUID(), orders, origin, route.DefaultCriteria(), nil, departAt)

		require.ErrorIs(t, err, providerErr)
	})
}

func TestNewRouteOptimizer(t *testing.T) {
	t.Run("requires_distance_provider", func(t *testing.T) {
		_, err := services.NewRouteOptimizer(nil)
		require.Error(t, err)
	})

	t.Run("zero_value_fails_validation", func(t *testing.T) {
		var optimizer services.RouteOptimizer
		require.ErrorIs(t, optimizer.Validate(), services.ErrOptimizerIsNotConstructed)
	})
}

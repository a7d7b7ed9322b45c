package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"

	"github.com/stretchr/testify/require"
)

var fixtureBase = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func fixtureLocation(t *testing.T, lat float64) kernel.Location {
	t.Helper()
	loc, err := kernel.NewLocation(lat, 0)
	require.NoError(t, err)
	return loc
}

func fixtureOrder(t *testing.T, pickupLat, dropoffLat float64) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewUUID(), fixtureLocation(t, pickupLat), fixtureLocation(t, dropoffLat), 20)
	require.NoError(t, err)
	return o
}

func fixtureRoute(t *testing.T, batchID kernel.UUID, orderIDs ...kernel.UUID) *route.OptimizedRoute {
	t.Helper()

	waypoints := make([]route.Waypoint, 0, 2*len(orderIDs))
	seq := 1
	for _, orderID := range orderIDs {
		w, err := route.NewWaypoint(
			kernel.NewUUID(), orderID, route.Pickup, fixtureLocation(t, 0.01*float64(seq)),
			seq, fixtureBase.Add(time.Duration(seq)*10*time.Minute), 3*time.Minute)
		require.NoError(t, err)
		waypoints = append(waypoints, w)
		seq++
	}
	for _, orderID := range orderIDs {
		w, err := route.NewWaypoint(
			kernel.NewUUID(), orderID, route.Dropoff, fixtureLocation(t, 0.01*float64(seq)),
			seq, fixtureBase.Add(time.Duration(seq)*10*time.Minute), 2*time.Minute)
		require.NoError(t, err)
		waypoints = append(waypoints, w)
		seq++
	}

	r, err := route.NewOptimizedRoute(
		kernel.NewUUID(), batchID, waypoints,
		12.5, 40*time.Minute, 45*time.Minute, 0.2,
		route.DefaultCriteria(), fixtureBase, route.TrafficModerate)
	require.NoError(t, err)
	return r
}

func fixturePlannedBatch(t *testing.T) *batch.DeliveryBatch {
	t.Helper()

	batchID := kernel.NewUUID()
	orderIDs := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID()}
	b, err := batch.NewDeliveryBatch(batchID, kernel.NewUUID(), orderIDs, fixtureRoute(t, batchID, orderIDs...))
	require.NoError(t, err)
	return b
}

func fixtureActiveBatch(t *testing.T) *batch.DeliveryBatch {
	t.Helper()

	b := fixturePlannedBatch(t)
	require.NoError(t, b.Start(fixtureBase))
	return b
}

func registryWith(t *testing.T, batches ...*batch.DeliveryBatch) *batch.Registry {
	t.Helper()

	registry := batch.NewRegistry()
	for _, b := range batches {
		require.NoError(t, registry.Add(b))
	}
	return registry
}

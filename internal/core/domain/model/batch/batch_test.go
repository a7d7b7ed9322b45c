package batch_test

import (
	"sync"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRoute(t *testing.T, batchID kernel.UUID, orderIDs ...kernel.UUID) *route.OptimizedRoute {
	t.Helper()

	waypoints := make([]route.Waypoint, 0, 2*len(orderIDs))
	seq := 1
	for _, orderID := range orderIDs {
		loc, err := kernel.NewLocation(52.5+float64(seq)*0.01, 13.4)
		require.NoError(t, err)
		w, err := route.NewWaypoint(kernel.NewUUID(), orderID, route.Pickup, loc, seq, time.Now(), time.Minute)
		require.NoError(t, err)
		waypoints = append(waypoints, w)
		seq++
	}
	for _, orderID := range orderIDs {
		loc, err := kernel.NewLocation(52.5+float64(seq)*0.01, 13.5)
		require.NoError(t, err)
		w, err := route.NewWaypoint(kernel.NewUUID(), orderID, route.Dropoff, loc, seq, time.Now(), time.Minute)
		require.NoError(t, err)
		waypoints = append(waypoints, w)
		seq++
	}

	r, err := route.NewOptimizedRoute(
		kernel.NewUUID(), batchID, waypoints,
		8.4, 30*time.Minute, 36*time.Minute, 0.78,
		route.DefaultCriteria(), time.Now(), route.TrafficModerate,
	)
	require.NoError(t, err)
	return r
}

func newPlannedBatch(t *testing.T) (*batch.DeliveryBatch, []kernel.UUID) {
	t.Helper()

	batchID := kernel.NewUUID()
	orderIDs := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID()}
	r := buildRoute(t, batchID, orderIDs...)

	b, err := batch.NewDeliveryBatch(batchID, kernel.NewUUID(), orderIDs, r)
	require.NoError(t, err)
	return b, orderIDs
}

func newActiveBatch(t *testing.T) (*batch.DeliveryBatch, []kernel.UUID) {
	t.Helper()

	b, orderIDs := newPlannedBatch(t)
	require.NoError(t, b.Start(time.Now()))
	return b, orderIDs
}

func TestNewDeliveryBatch(t *testing.T) {
	t.Run("creates_batch_in_planned_status", func(t *testing.T) {
		b, _ := newPlannedBatch(t)

		assert.Equal(t, batch.Planned, b.Status())
		assert.InDelta(t, 8.4, b.TotalDistanceKm(), 1e-12)
		assert.Equal(t, 30*time.Minute, b.EstimatedDuration())
		assert.InDelta(t, 0.78, b.OptimizationScore(), 1e-12)
		assert.Nil(t, b.ActualStartTime())
		assert.Nil(t, b.Progress())
	})

	t.Run("rejects_fewer_than_two_orders", func(t *testing.T) {
		batchID := kernel.NewUUID()
		orderID := kernel.NewUUID()
		r := buildRoute(t, batchID, orderID, kernel.NewUUID())

		_, err := batch.NewDeliveryBatch(batchID, kernel.NewUUID(), []kernel.UUID{orderID}, r)

		require.Error(t, err)
	})

	t.Run("rejects_nil_route", func(t *testing.T) {
		_, err := batch.NewDeliveryBatch(
			kernel.NewUUID(), kernel.NewUUID(),
			[]kernel.UUID{kernel.NewUUID(), kernel.NewUUID()}, nil,
		)

		require.Error(t, err)
	})
}

func TestDeliveryBatch_Start(t *testing.T) {
	t.Run("starts_planned_batch", func(t *testing.T) {
		b, _ := newPlannedBatch(t)
		now := time.Now()

		require.NoError(t, b.Start(now))

		assert.Equal(t, batch.Active, b.Status())
		require.NotNil(t, b.ActualStartTime())
		assert.Equal(t, now, *b.ActualStartTime())
		require.NotNil(t, b.Progress())
		assert.Equal(t, 1, b.Progress().CurrentWaypointSequence())
	})

	t.Run("fails_from_active", func(t *testing.T) {
		b, _ := newActiveBatch(t)

		err := b.Start(time.Now())

		require.ErrorIs(t, err, batch.ErrInvalidStateForOperation)
	})

	t.Run("fails_from_cancelled", func(t *testing.T) {
		b, _ := newPlannedBatch(t)
		require.NoError(t, b.Cancel("courier unavailable"))

		err := b.Start(time.Now())

		require.ErrorIs(t, err, batch.ErrInvalidStateForOperation)

		var stateErr *batch.InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "start", stateErr.Operation)
		assert.Equal(t, batch.Cancelled, stateErr.Status)
	})
}

func TestDeliveryBatch_PauseResume(t *testing.T) {
	t.Run("pause_and_resume_toggle_between_states", func(t *testing.T) {
		b, _ := newActiveBatch(t)

		require.NoError(t, b.Pause())
		assert.Equal(t, batch.Paused, b.Status())

		require.NoError(t, b.Resume())
		assert.Equal(t, batch.Active, b.Status())
	})

	t.Run("pause_fails_from_planned", func(t *testing.T) {
		b, _ := newPlannedBatch(t)

		require.ErrorIs(t, b.Pause(), batch.ErrInvalidStateForOperation)
	})

	t.Run("resume_fails_from_active", func(t *testing.T) {
		b, _ := newActiveBatch(t)

		require.ErrorIs(t, b.Resume(), batch.ErrInvalidStateForOperation)
	})
}

func TestDeliveryBatch_Complete(t *testing.T) {
	t.Run("completes_from_active", func(t *testing.T) {
		b, _ := newActiveBatch(t)
		now := time.Now()

		require.NoError(t, b.Complete(now))

		assert.Equal(t, batch.Completed, b.Status())
		require.NotNil(t, b.ActualCompletionTime())
		assert.Equal(t, now, *b.ActualCompletionTime())
	})

	t.Run("completes_from_paused", func(t *testing.T) {
		b, _ := newActiveBatch(t)
		require.NoError(t, b.Pause())

		require.NoError(t, b.Complete(time.Now()))
		assert.Equal(t, batch.Completed, b.Status())
	})

	t.Run("completes_with_partial_progress", func(t *testing.T) {
		b, _ := newActiveBatch(t)
		waypointID := b.Route().Waypoints()[0].ID()

		applied, err := b.CompleteWaypoint(waypointID, time.Now())
		require.NoError(t, err)
		require.True(t, applied)

		require.NoError(t, b.Complete(time.Now()))
	})

	t.Run("fails_from_planned", func(t *testing.T) {
		b, _ := newPlannedBatch(t)

		require.ErrorIs(t, b.Complete(time.Now()), batch.ErrInvalidStateForOperation)
	})
}

func TestDeliveryBatch_Cancel(t *testing.T) {
	t.Run("cancels_from_every_non_terminal_state", func(t *testing.T) {
		planned, _ := newPlannedBatch(t)
		require.NoError(t, planned.Cancel("no couriers"))

		active, _ := newActiveBatch(t)
		require.NoError(t, active.Cancel("vendor closed"))

		paused, _ := newActiveBatch(t)
		require.NoError(t, paused.Pause())
		require.NoError(t, paused.Cancel("customer request"))
	})

	t.Run("clears_active_route_reference", func(t *testing.T) {
		b, _ := newActiveBatch(t)

		require.NoError(t, b.Cancel("vendor closed"))

		assert.Nil(t, b.Route())
		assert.Equal(t, "vendor closed", b.CancelReason())
	})

	t.Run("fails_from_terminal_states", func(t *testing.T) {
		completed, _ := newActiveBatch(t)
		require.NoError(t, completed.Complete(time.Now()))
		require.ErrorIs(t, completed.Cancel("too late"), batch.ErrInvalidStateForOperation)

		cancelled, _ := newPlannedBatch(t)
		require.NoError(t, cancelled.Cancel("first"))
		require.ErrorIs(t, cancelled.Cancel("second"), batch.ErrInvalidStateForOperation)
	})
}

func TestDeliveryBatch_CompleteWaypoint(t *testing.T) {
	t.Run("advances_progress_in_order", func(t *testing.T) {
		b, _ := newActiveBatch(t)
		waypoints := b.Route().Waypoints()

		applied, err := b.CompleteWaypoint(waypoints[0].ID(), time.Now())
		require.NoError(t, err)
		assert.True(t, applied)
		assert.InDelta(t, 25, b.Progress().Percentage(), 1e-9)

		applied, err = b.CompleteWaypoint(waypoints[1].ID(), time.Now())
		require.NoError(t, err)
		assert.True(t, applied)
		assert.InDelta(t, 50, b.Progress().Percentage(), 1e-9)
	})

	t.Run("duplicate_completion_is_idempotent", func(t *testing.T) {
		b, _ := newActiveBatch(t)
		waypointID := b.Route().Waypoints()[0].ID()

		applied, err := b.CompleteWaypoint(waypointID, time.Now())
		require.NoError(t, err)
		require.True(t, applied)

		applied, err = b.CompleteWaypoint(waypointID, time.Now())
		require.NoError(t, err)
		assert.False(t, applied)
		assert.InDelta(t, 25, b.Progress().Percentage(), 1e-9)
	})

	t.Run("unknown_waypoint_fails", func(t *testing.T) {
		b, _ := newActiveBatch(t)

		_, err := b.CompleteWaypoint(kernel.NewUUID(), time.Now())

		require.Error(t, err)
	})

	t.Run("fails_when_not_active", func(t *testing.T) {
		b, _ := newActiveBatch(t)
		waypointID := b.Route().Waypoints()[0].ID()
		require.NoError(t, b.Pause())

		_, err := b.CompleteWaypoint(waypointID, time.Now())

		require.ErrorIs(t, err, batch.ErrInvalidStateForOperation)
	})
}

func TestDeliveryBatch_AbsorbRoute(t *testing.T) {
	t.Run("replaces_route_and_metrics", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		newRoute := buildRoute(t, b.ID(), orderIDs...)

		require.NoError(t, b.AbsorbRoute(newRoute))

		assert.Equal(t, newRoute.ID(), b.Route().ID())
		assert.InDelta(t, newRoute.TotalDistanceKm(), b.TotalDistanceKm(), 1e-12)
	})

	t.Run("fails_on_terminal_batch", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		newRoute := buildRoute(t, b.ID(), orderIDs...)
		require.NoError(t, b.Complete(time.Now()))

		require.ErrorIs(t, b.AbsorbRoute(newRoute), batch.ErrInvalidStateForOperation)
	})
}

func TestDeliveryBatch_AbsorbAdjustedRoute(t *testing.T) {
	t.Run("resyncs_order_set_with_route_orders", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		kept, added := orderIDs[0], kernel.NewUUID()
		newRoute := buildRoute(t, b.ID(), kept, added)

		require.NoError(t, b.AbsorbAdjustedRoute(newRoute))

		require.Len(t, b.OrderIDs(), 2)
		assert.True(t, b.OrderIDs()[0].IsEqual(kept))
		assert.True(t, b.OrderIDs()[1].IsEqual(added))
		assert.True(t, b.ContainsOrder(added))
		assert.False(t, b.ContainsOrder(orderIDs[1]))
	})

	t.Run("rebases_progress_onto_new_waypoint_count", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		wp := b.Route().Waypoints()[0]
		_, err := b.CompleteWaypoint(wp.ID(), time.Now())
		require.NoError(t, err)
		newRoute := buildRoute(t, b.ID(), orderIDs[0])

		require.NoError(t, b.AbsorbAdjustedRoute(newRoute))

		assert.InDelta(t, 50.0, b.Progress().Percentage(), 1e-12)
	})
}

func TestRestoreBatch(t *testing.T) {
	t.Run("round_trips_a_batch_shrunk_below_creation_minimum", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		shrunkRoute := buildRoute(t, b.ID(), orderIDs[0])
		require.NoError(t, b.AbsorbAdjustedRoute(shrunkRoute))
		require.Len(t, b.OrderIDs(), 1)

		restored, err := batch.RestoreBatch(
			b.ID(),
			b.DriverID(),
			b.Status(),
			b.OrderIDs(),
			b.Route(),
			b.Progress(),
			b.TotalDistanceKm(),
			b.EstimatedDuration(),
			b.OptimizationScore(),
			b.ActualStartTime(),
			b.ActualCompletionTime(),
			b.CancelReason(),
		)

		require.NoError(t, err)
		require.Len(t, restored.OrderIDs(), 1)
		assert.True(t, restored.OrderIDs()[0].IsEqual(orderIDs[0]))
		assert.Equal(t, batch.Active, restored.Status())
	})

	t.Run("rejects_empty_order_set", func(t *testing.T) {
		b, _ := newActiveBatch(t)

		_, err := batch.RestoreBatch(
			b.ID(), b.DriverID(), b.Status(), nil,
			b.Route(), b.Progress(),
			b.TotalDistanceKm(), b.EstimatedDuration(), b.OptimizationScore(),
			b.ActualStartTime(), b.ActualCompletionTime(), b.CancelReason(),
		)

		require.Error(t, err)
	})
}

func TestDeliveryBatch_UpdateOrderStatus(t *testing.T) {
	newOrder := func(t *testing.T, id kernel.UUID, status order.Status) *order.Order {
		t.Helper()
		pickup, err := kernel.NewLocation(52.52, 13.4)
		require.NoError(t, err)
		dropoff, err := kernel.NewLocation(52.53, 13.42)
		require.NoError(t, err)
		o, err := order.RestoreOrder(id, pickup, dropoff, 20, status)
		require.NoError(t, err)
		return o
	}

	t.Run("legal_pickup_transition_is_applied", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		o := newOrder(t, orderIDs[0], order.Assigned)

		require.NoError(t, b.UpdatePickupStatus(o, order.OnRouteToVendor))
		assert.Equal(t, order.OnRouteToVendor, o.Status())
	})

	t.Run("illegal_transition_surfaces_error_and_keeps_progress", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		o := newOrder(t, orderIDs[0], order.Assigned)
		before := b.Progress().Percentage()

		err := b.UpdatePickupStatus(o, order.PickedUp)

		require.ErrorIs(t, err, order.ErrIllegalTransition)
		assert.Equal(t, order.Assigned, o.Status())
		assert.InDelta(t, before, b.Progress().Percentage(), 1e-12)
	})

	t.Run("delivery_phase_rejects_pickup_targets", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		o := newOrder(t, orderIDs[0], order.PickedUp)

		require.Error(t, b.UpdateDeliveryStatus(o, order.ArrivedAtVendor))
	})

	t.Run("legal_delivery_transition_is_applied", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		o := newOrder(t, orderIDs[0], order.PickedUp)

		require.NoError(t, b.UpdateDeliveryStatus(o, order.OnRouteToCustomer))
		assert.Equal(t, order.OnRouteToCustomer, o.Status())
	})

	t.Run("rejects_order_outside_batch", func(t *testing.T) {
		b, _ := newActiveBatch(t)
		o := newOrder(t, kernel.NewUUID(), order.Assigned)

		require.ErrorIs(t, b.UpdatePickupStatus(o, order.OnRouteToVendor), batch.ErrOrderNotInBatch)
	})

	t.Run("rejects_on_terminal_batch", func(t *testing.T) {
		b, orderIDs := newActiveBatch(t)
		o := newOrder(t, orderIDs[0], order.Assigned)
		require.NoError(t, b.Complete(time.Now()))

		require.ErrorIs(t, b.UpdatePickupStatus(o, order.OnRouteToVendor), batch.ErrInvalidStateForOperation)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("add_get_remove_round_trip", func(t *testing.T) {
		registry := batch.NewRegistry()
		b, _ := newPlannedBatch(t)

		require.NoError(t, registry.Add(b))

		got, err := registry.Get(b.ID())
		require.NoError(t, err)
		assert.Same(t, b, got)

		registry.Remove(b.ID())
		_, err = registry.Get(b.ID())
		require.Error(t, err)
	})

	t.Run("active_ids_filters_by_status", func(t *testing.T) {
		registry := batch.NewRegistry()

		planned, _ := newPlannedBatch(t)
		active, _ := newActiveBatch(t)
		require.NoError(t, registry.Add(planned))
		require.NoError(t, registry.Add(active))

		ids := registry.ActiveIDs()

		require.Len(t, ids, 1)
		assert.True(t, ids[0].IsEqual(active.ID()))
	})

	t.Run("is_active_reflects_registered_status", func(t *testing.T) {
		registry := batch.NewRegistry()

		active, _ := newActiveBatch(t)
		require.NoError(t, registry.Add(active))

		assert.True(t, registry.IsActive(active.ID()))
		require.NoError(t, active.Pause())
		assert.False(t, registry.IsActive(active.ID()))
		assert.False(t, registry.IsActive(kernel.NewUUID()))
	})
}

func TestRegistry_LockBatch(t *testing.T) {
	t.Run("serializes_waypoint_writes_against_progress_reads", func(t *testing.T) {
		registry := batch.NewRegistry()
		b, _ := newActiveBatch(t)
		require.NoError(t, registry.Add(b))

		waypoints := b.Route().Waypoints()
		lastWaypointID := waypoints[len(waypoints)-1].ID()

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for _, wp := range waypoints {
				unlock := registry.LockBatch(b.ID())
				_, err := b.CompleteWaypoint(wp.ID(), time.Now())
				unlock()
				assert.NoError(t, err)
			}
		}()

		go func() {
			defer wg.Done()
			previous := 0.0
			for {
				unlock := registry.LockBatch(b.ID())
				pct := b.Progress().Percentage()
				done := b.Progress().IsCompleted(lastWaypointID)
				unlock()

				assert.GreaterOrEqual(t, pct, previous)
				previous = pct
				if done {
					return
				}
			}
		}()

		wg.Wait()
		assert.InDelta(t, 100.0, b.Progress().Percentage(), 1e-9)
	})

	t.Run("unlock_releases_for_the_next_caller", func(t *testing.T) {
		registry := batch.NewRegistry()
		id := kernel.NewUUID()

		unlock := registry.LockBatch(id)
		unlock()

		acquired := make(chan struct{})
		go func() {
			second := registry.LockBatch(id)
			second()
			close(acquired)
		}()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("lock was not released for the next caller")
		}
	})
}

package commands_test

import (
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// detourBatch is an active batch whose route crosses town for order B before
// delivering nearby order A, stored with a low optimization score so a
// recomputation has room to improve on it.
func detourBatch(t *testing.T) *batch.DeliveryBatch {
	t.Helper()

	batchID := kernel.NewUUID()
	orderA, orderB := kernel.NewUUID(), kernel.NewUUID()

	criteria, err := route.NewCriteria(1, 0, 0, 0)
	require.NoError(t, err)

	waypoint := func(orderID kernel.UUID, kind route.WaypointType, lat float64, seq int) route.Waypoint {
		w, err := route.NewWaypoint(
			kernel.NewUUID(), orderID, kind, fixtureLocation(t, lat), seq,
			fixtureBase.Add(time.Duration(seq)*10*time.Minute), 2*time.Minute)
		require.NoError(t, err)
		return w
	}

	r, err := route.NewOptimizedRoute(
		kernel.NewUUID(), batchID,
		[]route.Waypoint{
			waypoint(orderA, route.Pickup, 0.00, 1),
			waypoint(orderB, route.Pickup, 0.05, 2),
			waypoint(orderA, route.Dropoff, 0.01, 3),
			waypoint(orderB, route.Dropoff, 0.06, 4),
		},
		15.6, 30*time.Minute, 30*time.Minute, 0.2, criteria, fixtureBase, route.TrafficLight)
	require.NoError(t, err)

	b, err := batch.NewDeliveryBatch(batchID, kernel.NewUUID(), []kernel.UUID{orderA, orderB}, r)
	require.NoError(t, err)
	require.NoError(t, b.Start(fixtureBase))
	return b
}

func TestReoptimizeBatchCommandHandler_Handle(t *testing.T) {
	optimizer, err := services.NewRouteOptimizer(straightLineProvider{speedKmh: 30})
	require.NoError(t, err)
	logger := slog.Default()

	newHarness := func(t *testing.T, b *batch.DeliveryBatch) (commands.ReoptimizeBatchCommandHandler, *MockBatchRepository, *MockBatchUoW) {
		t.Helper()
		registry := registryWith(t, b)
		batchRepo := new(MockBatchRepository)
		uow := new(MockBatchUoW)
		uow.On("BatchRepository").Return(batchRepo)
		factory := new(MockBatchUoWFactory)
		factory.On("Create").Return(uow)
		return commands.NewReoptimizeBatchCommandHandler(factory, optimizer, registry, logger), batchRepo, uow
	}

	t.Run("absorbs_improved_route", func(t *testing.T) {
		ctx := t.Context()
		b := detourBatch(t)
		previousRouteID := b.Route().ID()
		handler, batchRepo, uow := newHarness(t, b)

		uow.On("Begin", ctx).Return(nil).Once()
		batchRepo.On("Update", ctx, b).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()
		uow.On("Rollback", ctx).Return(nil).Once()

		cmd, err := commands.NewReoptimizeBatchCommand(b.ID(), nil)
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.False(t, b.Route().ID().IsEqual(previousRouteID))
		assert.Greater(t, b.OptimizationScore(),
			0.2+services.ReoptimizationImprovementMargin)
		assert.Equal(t, 4, b.Route().WaypointCount())
		batchRepo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("commits_nothing_when_route_is_already_optimal", func(t *testing.T) {
		ctx := t.Context()
		b := fixtureActiveBatch(t)
		previousRouteID := b.Route().ID()
		handler, batchRepo, uow := newHarness(t, b)

		uow.On("Begin", ctx).Return(nil).Once()
		uow.On("Rollback", ctx).Return(nil).Once()

		cmd, err := commands.NewReoptimizeBatchCommand(b.ID(), nil)
		require.NoError(t, err)

		require.NoError(t, handler.Handle(ctx, cmd))

		assert.True(t, b.Route().ID().IsEqual(previousRouteID))
		batchRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("rejects_non_active_batch", func(t *testing.T) {
		ctx := t.Context()
		planned := fixturePlannedBatch(t)
		handler, _, uow := newHarness(t, planned)

		uow.On("Begin", ctx).Return(nil).Once()
		uow.On("Rollback", ctx).Return(nil).Once()

		cmd, err := commands.NewReoptimizeBatchCommand(planned.ID(), nil)
		require.NoError(t, err)

		require.ErrorIs(t, handler.Handle(ctx, cmd), batch.ErrInvalidStateForOperation)
	})
}

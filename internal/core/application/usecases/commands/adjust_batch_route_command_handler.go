package commands

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// AdjustBatchRouteCommandHandler applies ambient condition signals to the
// route of an active batch. The optimizer decides whether the conditions
// warrant a new route; structural changes (orders added or removed
// mid-flight) are always adopted, everything else must clear the
// improvement margin. A failed recomputation keeps the last accepted route
// in force and is logged, never surfaced as an error.
type AdjustBatchRouteCommandHandler struct {
	uowFactory      BatchUoWFactory
	optimizer       *services.RouteOptimizer
	driverLocations ports.DriverLocationProvider
	registry        *batch.Registry
	logger          *slog.Logger
}

// NewAdjustBatchRouteCommandHandler creates a handler for dynamic route
// adjustments.
func NewAdjustBatchRouteCommandHandler(
	uowFactory BatchUoWFactory,
	optimizer *services.RouteOptimizer,
	driverLocations ports.DriverLocationProvider,
	registry *batch.Registry,
	logger *slog.Logger,
) AdjustBatchRouteCommandHandler {
	return AdjustBatchRouteCommandHandler{
		uowFactory:      uowFactory,
		optimizer:       optimizer,
		driverLocations: driverLocations,
		registry:        registry,
		logger:          logger.With("component", "adjust_batch_route_handler"),
	}
}

// Handle processes the adjustment command. Only active batches are eligible.
func (h *AdjustBatchRouteCommandHandler) Handle(ctx context.Context, cmd AdjustBatchRouteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	unlock := h.registry.LockBatch(cmd.BatchID())
	defer unlock()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	deliveryBatch, err := loadBatch(ctx, h.registry, uow.BatchRepository(), cmd.BatchID())
	if err != nil {
		return err
	}

	if deliveryBatch.Status() != batch.Active {
		return batch.NewInvalidStateError("adjust route", deliveryBatch.Status())
	}

	driverLocation, err := h.driverLocations.FetchDriverLocation(ctx, deliveryBatch.DriverID())
	if err != nil {
		return err
	}

	now := time.Now()
	result := h.optimizer.CalculateDynamicRouteAdjustment(
		ctx,
		deliveryBatch.Route(),
		driverLocation,
		completedWaypointIDs(deliveryBatch),
		cmd.Conditions(),
		now,
	)

	switch result.Outcome {
	case services.NoAdjustmentNeeded:
		h.logger.Debug("no adjustment needed", "batch_id", cmd.BatchID().String())
		return nil
	case services.AdjustmentFailed:
		h.logger.Warn("route adjustment failed, keeping current route",
			"batch_id", cmd.BatchID().String(),
			"reason", result.FailureReason)
		return nil
	case services.Adjusted:
	}

	newRoute, err := result.Update.BuildRoute(deliveryBatch.ID(), deliveryBatch.Route().Criteria(), now)
	if err != nil {
		return err
	}

	if err = deliveryBatch.AbsorbAdjustedRoute(newRoute); err != nil {
		return err
	}

	if err = uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.Info("route adjusted",
		"batch_id", cmd.BatchID().String(),
		"new_score", result.Update.NewOptimizationScore)
	return nil
}

func completedWaypointIDs(b *batch.DeliveryBatch) []kernel.UUID {
	progress := b.Progress()
	if progress == nil {
		return nil
	}

	ids := make([]kernel.UUID, 0)
	for id, done := range progress.CompletedWaypointIDs() {
		if done {
			ids = append(ids, id)
		}
	}
	return ids
}

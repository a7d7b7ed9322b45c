package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/batch"
)

// CompleteWaypointCommandHandler applies a waypoint-completion report to the
// batch progress. A duplicate report commits no change but still succeeds.
type CompleteWaypointCommandHandler struct {
	uowFactory BatchUoWFactory
	registry   *batch.Registry
}

// NewCompleteWaypointCommandHandler creates a handler for waypoint completion.
func NewCompleteWaypointCommandHandler(
	uowFactory BatchUoWFactory,
	registry *batch.Registry,
) CompleteWaypointCommandHandler {
	return CompleteWaypointCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
	}
}

// Handle processes the waypoint completion command.
func (h *CompleteWaypointCommandHandler) Handle(ctx context.Context, cmd CompleteWaypointCommand) error {
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

	applied, err := deliveryBatch.CompleteWaypoint(cmd.WaypointID(), time.Now())
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	if err = uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

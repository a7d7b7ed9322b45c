package commands

import (
	"context"

	"dispatch/internal/core/domain/model/batch"
)

// PauseBatchCommandHandler suspends an active batch. Pausing cancels all
// pending reoptimization work for the batch; the route is not recomputed.
type PauseBatchCommandHandler struct {
	uowFactory BatchUoWFactory
	registry   *batch.Registry
	watcher    RealTimeWatcher
}

// NewPauseBatchCommandHandler creates a handler for batch pause operations.
func NewPauseBatchCommandHandler(
	uowFactory BatchUoWFactory,
	registry *batch.Registry,
	watcher RealTimeWatcher,
) PauseBatchCommandHandler {
	return PauseBatchCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		watcher:    watcher,
	}
}

// Handle processes the batch pause command.
func (h *PauseBatchCommandHandler) Handle(ctx context.Context, cmd PauseBatchCommand) error {
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

	if err = deliveryBatch.Pause(); err != nil {
		return err
	}

	if err = uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.watcher.StopWatching(cmd.BatchID())
	return nil
}

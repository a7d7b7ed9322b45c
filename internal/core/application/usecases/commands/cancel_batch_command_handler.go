package commands

import (
	"context"

	"dispatch/internal/core/domain/model/batch"
)

// CancelBatchCommandHandler aborts a batch from any non-terminal state,
// clearing the active route reference, cancelling pending reoptimization
// work, and releasing the aggregate from the registry.
type CancelBatchCommandHandler struct {
	uowFactory BatchUoWFactory
	registry   *batch.Registry
	watcher    RealTimeWatcher
}

// NewCancelBatchCommandHandler creates a handler for batch cancellation.
func NewCancelBatchCommandHandler(
	uowFactory BatchUoWFactory,
	registry *batch.Registry,
	watcher RealTimeWatcher,
) CancelBatchCommandHandler {
	return CancelBatchCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		watcher:    watcher,
	}
}

// Handle processes the batch cancellation command.
func (h *CancelBatchCommandHandler) Handle(ctx context.Context, cmd CancelBatchCommand) error {
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

	if err = deliveryBatch.Cancel(cmd.Reason()); err != nil {
		return err
	}

	if err = uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.watcher.StopWatching(cmd.BatchID())
	h.registry.Remove(cmd.BatchID())
	return nil
}

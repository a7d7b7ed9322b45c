package commands

import (
	"context"

	"dispatch/internal/core/domain/model/batch"
)

// ResumeBatchCommandHandler reactivates a paused batch.
type ResumeBatchCommandHandler struct {
	uowFactory BatchUoWFactory
	registry   *batch.Registry
}

// NewResumeBatchCommandHandler creates a handler for batch resume operations.
func NewResumeBatchCommandHandler(uowFactory BatchUoWFactory, registry *batch.Registry) ResumeBatchCommandHandler {
	return ResumeBatchCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
	}
}

// Handle processes the batch resume command.
func (h *ResumeBatchCommandHandler) Handle(ctx context.Context, cmd ResumeBatchCommand) error {
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

	if err = deliveryBatch.Resume(); err != nil {
		return err
	}

	if err = uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/batch"
)

// StartBatchCommandHandler moves a planned batch to Active, recording the
// actual start time and beginning progress tracking at waypoint sequence 1.
type StartBatchCommandHandler struct {
	uowFactory BatchUoWFactory
	registry   *batch.Registry
}

// NewStartBatchCommandHandler creates a handler for batch start operations.
func NewStartBatchCommandHandler(uowFactory BatchUoWFactory, registry *batch.Registry) StartBatchCommandHandler {
	return StartBatchCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
	}
}

// Handle processes the batch start command. Starting a batch in any status
// other than Planned fails with batch.ErrInvalidStateForOperation.
func (h *StartBatchCommandHandler) Handle(ctx context.Context, cmd StartBatchCommand) error {
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

	if err = deliveryBatch.Start(time.Now()); err != nil {
		return err
	}

	if err = uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

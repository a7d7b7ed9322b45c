package commands

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/batch"
)

// CompleteBatchCommandHandler finishes a batch from Active or Paused,
// recording the completion time, cancelling pending reoptimization work, and
// releasing the aggregate from the registry. Completing a batch whose
// progress is below 100% is allowed and logged as a business event.
type CompleteBatchCommandHandler struct {
	uowFactory BatchUoWFactory
	registry   *batch.Registry
	watcher    RealTimeWatcher
	logger     *slog.Logger
}

// NewCompleteBatchCommandHandler creates a handler for batch completion.
func NewCompleteBatchCommandHandler(
	uowFactory BatchUoWFactory,
	registry *batch.Registry,
	watcher RealTimeWatcher,
	logger *slog.Logger,
) CompleteBatchCommandHandler {
	return CompleteBatchCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		watcher:    watcher,
		logger:     logger.With("component", "complete_batch_handler"),
	}
}

// Handle processes the batch completion command.
func (h *CompleteBatchCommandHandler) Handle(ctx context.Context, cmd CompleteBatchCommand) error {
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

	if progress := deliveryBatch.Progress(); progress != nil && progress.Percentage() < 100 {
		h.logger.Warn("batch completed with partial progress",
			"batch_id", cmd.BatchID().String(),
			"progress_percentage", progress.Percentage())
	}

	if err = deliveryBatch.Complete(time.Now()); err != nil {
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

package commands

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/services"
)

// ReoptimizeBatchCommandHandler recomputes the remaining route of an active
// batch and, when the optimizer reports a worthwhile improvement, persists
// the replacement route and lets the aggregate absorb it. A recomputation
// that falls short of the improvement margin commits nothing; the accepted
// route stays in force.
type ReoptimizeBatchCommandHandler struct {
	uowFactory BatchUoWFactory
	optimizer  *services.RouteOptimizer
	registry   *batch.Registry
	logger     *slog.Logger
}

// NewReoptimizeBatchCommandHandler creates a handler for route reoptimization.
func NewReoptimizeBatchCommandHandler(
	uowFactory BatchUoWFactory,
	optimizer *services.RouteOptimizer,
	registry *batch.Registry,
	logger *slog.Logger,
) ReoptimizeBatchCommandHandler {
	return ReoptimizeBatchCommandHandler{
		uowFactory: uowFactory,
		optimizer:  optimizer,
		registry:   registry,
		logger:     logger.With("component", "reoptimize_batch_handler"),
	}
}

// Handle processes the reoptimization command. Only active batches with a
// started progress tracker are eligible.
func (h *ReoptimizeBatchCommandHandler) Handle(ctx context.Context, cmd ReoptimizeBatchCommand) error {
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
		return batch.NewInvalidStateError("reoptimize", deliveryBatch.Status())
	}

	now := time.Now()
	update, err := h.optimizer.ReoptimizeRoute(
		ctx, deliveryBatch.Route(), deliveryBatch.Progress(), cmd.Events(), now)
	if err != nil {
		return err
	}
	if update == nil {
		h.logger.Debug("route already optimal", "batch_id", cmd.BatchID().String())
		return nil
	}

	newRoute, err := update.BuildRoute(deliveryBatch.ID(), deliveryBatch.Route().Criteria(), now)
	if err != nil {
		return err
	}

	if err = deliveryBatch.AbsorbRoute(newRoute); err != nil {
		return err
	}

	if err = uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.Info("route reoptimized",
		"batch_id", cmd.BatchID().String(),
		"new_score", update.NewOptimizationScore)
	return nil
}

package commands

import (
	"context"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/order"
)

// UpdateOrderStatusCommandHandler applies a normalized status change to one
// order through its batch. Transition legality is decided by the order status
// state machine; an illegal transition surfaces the error and persists
// nothing, never silently coercing the status.
type UpdateOrderStatusCommandHandler struct {
	uowFactory UoWFactory
	registry   *batch.Registry
}

// NewUpdateOrderStatusCommandHandler creates a handler for order status updates.
func NewUpdateOrderStatusCommandHandler(uowFactory UoWFactory, registry *batch.Registry) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
	}
}

// Handle processes the order status update command.
func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error {
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

	trackedOrder, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if isPickupPhase(cmd.TargetStatus()) {
		err = deliveryBatch.UpdatePickupStatus(trackedOrder, cmd.TargetStatus())
	} else {
		err = deliveryBatch.UpdateDeliveryStatus(trackedOrder, cmd.TargetStatus())
	}
	if err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, trackedOrder); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func isPickupPhase(status order.Status) bool {
	switch status {
	case order.OnRouteToVendor, order.ArrivedAtVendor, order.PickedUp:
		return true
	default:
		return false
	}
}

package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
		"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
	)
	ErrStatusIsRequired = errors.New("status is required")
)

// UpdateOrderStatusCommand represents a driver-reported status change for one
// order in a batch. The raw status string is normalized at this boundary:
// legacy synonyms map onto canonical statuses and unrecognized values degrade
// to picked_up, so the domain below only ever sees canonical statuses.
//
// Example:
//
//	cmd, err := NewUpdateOrderStatusCommand(batchID, orderID, "ready")
//	// cmd.TargetStatus() == order.ArrivedAtVendor
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	batchID      kernel.UUID
	orderID      kernel.UUID
	targetStatus order.Status

	guard guard.ConstructorGuard
}

// NewUpdateOrderStatusCommand creates a command carrying the normalized
// target status for an order.
func NewUpdateOrderStatusCommand(
	batchID kernel.UUID,
	orderID kernel.UUID,
	rawStatus string,
) (UpdateOrderStatusCommand, error) {
	if err := errors.Join(batchID.Validate(), orderID.Validate()); err != nil {
		return UpdateOrderStatusCommand{}, err
	}
	if rawStatus == "" {
		return UpdateOrderStatusCommand{}, ErrStatusIsRequired
	}

	return UpdateOrderStatusCommand{
		batchID:      batchID,
		orderID:      orderID,
		targetStatus: order.NormalizeStatus(rawStatus),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch carrying the order.
func (c UpdateOrderStatusCommand) BatchID() kernel.UUID {
	return c.batchID
}

// OrderID returns the identifier of the order whose status changes.
func (c UpdateOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

// TargetStatus returns the normalized canonical status to apply.
func (c UpdateOrderStatusCommand) TargetStatus() order.Status {
	return c.targetStatus
}

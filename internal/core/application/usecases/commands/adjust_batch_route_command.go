package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/guard"
)

var ErrAdjustBatchRouteCommandIsNotConstructed = errors.New(
	"AdjustBatchRouteCommand must be created via NewAdjustBatchRouteCommand constructor",
)

// AdjustBatchRouteCommand folds ambient condition signals (traffic level,
// weather, mid-batch order changes) into the route of an active batch.
// Issued by the real-time adjustment coordinator after its debounce window
// closes, never directly by transport handlers.
type AdjustBatchRouteCommand struct { //nolint:recvcheck //using for validation
	batchID    kernel.UUID
	conditions services.RealTimeConditions

	guard guard.ConstructorGuard
}

// NewAdjustBatchRouteCommand creates a command to adjust a batch route to
// current ambient conditions.
func NewAdjustBatchRouteCommand(
	batchID kernel.UUID,
	conditions services.RealTimeConditions,
) (AdjustBatchRouteCommand, error) {
	if err := batchID.Validate(); err != nil {
		return AdjustBatchRouteCommand{}, err
	}

	return AdjustBatchRouteCommand{
		batchID:    batchID,
		conditions: conditions,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AdjustBatchRouteCommand) Validate() error {
	return c.guard.Validate(ErrAdjustBatchRouteCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch to adjust.
func (c AdjustBatchRouteCommand) BatchID() kernel.UUID {
	return c.batchID
}

// Conditions returns the ambient condition signals to fold in.
func (c AdjustBatchRouteCommand) Conditions() services.RealTimeConditions {
	return c.conditions
}

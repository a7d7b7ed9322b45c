package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCompleteWaypointCommandIsNotConstructed = errors.New(
	"CompleteWaypointCommand must be created via NewCompleteWaypointCommand constructor",
)

// CompleteWaypointCommand represents a courier reporting arrival at and
// completion of one route stop. Duplicate or out-of-order deliveries of the
// same report are tolerated: applying them is an idempotent no-op.
type CompleteWaypointCommand struct { //nolint:recvcheck //using for validation
	batchID    kernel.UUID
	waypointID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCompleteWaypointCommand creates a command to mark a waypoint completed.
func NewCompleteWaypointCommand(batchID, waypointID kernel.UUID) (CompleteWaypointCommand, error) {
	if err := errors.Join(batchID.Validate(), waypointID.Validate()); err != nil {
		return CompleteWaypointCommand{}, err
	}

	return CompleteWaypointCommand{
		batchID:    batchID,
		waypointID: waypointID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CompleteWaypointCommand) Validate() error {
	return c.guard.Validate(ErrCompleteWaypointCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch being driven.
func (c CompleteWaypointCommand) BatchID() kernel.UUID {
	return c.batchID
}

// WaypointID returns the identifier of the completed waypoint.
func (c CompleteWaypointCommand) WaypointID() kernel.UUID {
	return c.waypointID
}

package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/guard"
)

var ErrReoptimizeBatchCommandIsNotConstructed = errors.New(
	"ReoptimizeBatchCommand must be created via NewReoptimizeBatchCommand constructor",
)

// ReoptimizeBatchCommand requests a recomputation of the remaining portion
// of a batch's route, carrying the recent disruptive events that motivated
// it. Issued by the real-time adjustment coordinator, never directly by
// transport handlers.
type ReoptimizeBatchCommand struct { //nolint:recvcheck //using for validation
	batchID kernel.UUID
	events  []route.Event

	guard guard.ConstructorGuard
}

// NewReoptimizeBatchCommand creates a command to reoptimize a batch route.
// The event list may be empty for purely periodic reevaluations.
func NewReoptimizeBatchCommand(batchID kernel.UUID, events []route.Event) (ReoptimizeBatchCommand, error) {
	if err := batchID.Validate(); err != nil {
		return ReoptimizeBatchCommand{}, err
	}

	owned := make([]route.Event, len(events))
	copy(owned, events)

	return ReoptimizeBatchCommand{
		batchID: batchID,
		events:  owned,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ReoptimizeBatchCommand) Validate() error {
	return c.guard.Validate(ErrReoptimizeBatchCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch to reoptimize.
func (c ReoptimizeBatchCommand) BatchID() kernel.UUID {
	return c.batchID
}

// Events returns the disruptive events motivating the reoptimization.
func (c ReoptimizeBatchCommand) Events() []route.Event {
	events := make([]route.Event, len(c.events))
	copy(events, c.events)
	return events
}

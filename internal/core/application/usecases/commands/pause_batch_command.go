package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrPauseBatchCommandIsNotConstructed = errors.New(
	"PauseBatchCommand must be created via NewPauseBatchCommand constructor",
)

// PauseBatchCommand represents a request to suspend an active batch.
type PauseBatchCommand struct { //nolint:recvcheck //using for validation
	batchID kernel.UUID

	guard guard.ConstructorGuard
}

// NewPauseBatchCommand creates a command to pause an active batch.
func NewPauseBatchCommand(batchID kernel.UUID) (PauseBatchCommand, error) {
	if err := batchID.Validate(); err != nil {
		return PauseBatchCommand{}, err
	}

	return PauseBatchCommand{
		batchID: batchID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c PauseBatchCommand) Validate() error {
	return c.guard.Validate(ErrPauseBatchCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch to pause.
func (c PauseBatchCommand) BatchID() kernel.UUID {
	return c.batchID
}

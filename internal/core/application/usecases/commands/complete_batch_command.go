package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCompleteBatchCommandIsNotConstructed = errors.New(
	"CompleteBatchCommand must be created via NewCompleteBatchCommand constructor",
)

// CompleteBatchCommand represents a request to finish a batch.
type CompleteBatchCommand struct { //nolint:recvcheck //using for validation
	batchID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCompleteBatchCommand creates a command to complete a batch.
func NewCompleteBatchCommand(batchID kernel.UUID) (CompleteBatchCommand, error) {
	if err := batchID.Validate(); err != nil {
		return CompleteBatchCommand{}, err
	}

	return CompleteBatchCommand{
		batchID: batchID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CompleteBatchCommand) Validate() error {
	return c.guard.Validate(ErrCompleteBatchCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch to complete.
func (c CompleteBatchCommand) BatchID() kernel.UUID {
	return c.batchID
}

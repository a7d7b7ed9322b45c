package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrStartBatchCommandIsNotConstructed = errors.New(
	"StartBatchCommand must be created via NewStartBatchCommand constructor",
)

// StartBatchCommand represents a courier's confirmation that a planned batch
// is now being driven.
type StartBatchCommand struct { //nolint:recvcheck //using for validation
	batchID kernel.UUID

	guard guard.ConstructorGuard
}

// NewStartBatchCommand creates a command to start a planned batch.
func NewStartBatchCommand(batchID kernel.UUID) (StartBatchCommand, error) {
	if err := batchID.Validate(); err != nil {
		return StartBatchCommand{}, err
	}

	return StartBatchCommand{
		batchID: batchID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c StartBatchCommand) Validate() error {
	return c.guard.Validate(ErrStartBatchCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch to start.
func (c StartBatchCommand) BatchID() kernel.UUID {
	return c.batchID
}

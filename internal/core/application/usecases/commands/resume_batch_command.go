package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrResumeBatchCommandIsNotConstructed = errors.New(
	"ResumeBatchCommand must be created via NewResumeBatchCommand constructor",
)

// ResumeBatchCommand represents a request to reactivate a paused batch.
// Resuming does not reoptimize; callers wanting a fresh route must issue an
// explicit reoptimize command.
type ResumeBatchCommand struct { //nolint:recvcheck //using for validation
	batchID kernel.UUID

	guard guard.ConstructorGuard
}

// NewResumeBatchCommand creates a command to resume a paused batch.
func NewResumeBatchCommand(batchID kernel.UUID) (ResumeBatchCommand, error) {
	if err := batchID.Validate(); err != nil {
		return ResumeBatchCommand{}, err
	}

	return ResumeBatchCommand{
		batchID: batchID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ResumeBatchCommand) Validate() error {
	return c.guard.Validate(ErrResumeBatchCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch to resume.
func (c ResumeBatchCommand) BatchID() kernel.UUID {
	return c.batchID
}

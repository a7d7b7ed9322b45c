package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCancelBatchCommandIsNotConstructed = errors.New(
		"CancelBatchCommand must be created via NewCancelBatchCommand constructor",
	)
	ErrCancelReasonIsRequired = errors.New("cancel reason is required")
)

// CancelBatchCommand represents a request to abort a batch with a reason.
type CancelBatchCommand struct { //nolint:recvcheck //using for validation
	batchID kernel.UUID
	reason  string

	guard guard.ConstructorGuard
}

// NewCancelBatchCommand creates a command to cancel a batch.
// The reason is mandatory; it is recorded on the aggregate for auditing.
func NewCancelBatchCommand(batchID kernel.UUID, reason string) (CancelBatchCommand, error) {
	if err := batchID.Validate(); err != nil {
		return CancelBatchCommand{}, err
	}
	if reason == "" {
		return CancelBatchCommand{}, ErrCancelReasonIsRequired
	}

	return CancelBatchCommand{
		batchID: batchID,
		reason:  reason,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelBatchCommand) Validate() error {
	return c.guard.Validate(ErrCancelBatchCommandIsNotConstructed)
}

// BatchID returns the identifier of the batch to cancel.
func (c CancelBatchCommand) BatchID() kernel.UUID {
	return c.batchID
}

// Reason returns the cancellation reason.
func (c CancelBatchCommand) Reason() string {
	return c.reason
}

package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateBatchCommandIsNotConstructed = errors.New(
		"CreateBatchCommand must be created via NewCreateBatchCommand constructor",
	)
	ErrTooManyOrders         = errors.New("order count exceeds the batch maximum")
	ErrMaxOrdersIsInvalid    = errors.New("max orders must be at least the batching minimum")
	ErrMaxDeviationIsInvalid = errors.New("max deviation must be greater than 0")
)

// CreateBatchCommand represents a request to group orders into a new delivery
// batch for a single driver, with an optimized route computed up front.
//
// Example:
//
//	cmd, err := NewCreateBatchCommand(batchID, driverID, orderIDs, 4, 10, route.DefaultCriteria())
//	if err != nil {
//	    return fmt.Errorf("invalid batch data: %w", err)
//	}
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create batch: %w", err)
//	}
type CreateBatchCommand struct { //nolint:recvcheck //using for validation
	batchID        kernel.UUID
	driverID       kernel.UUID
	orderIDs       []kernel.UUID
	maxOrders      int
	maxDeviationKm float64
	criteria       route.Criteria

	guard guard.ConstructorGuard
}

// NewCreateBatchCommand creates a command to assemble a new delivery batch.
// Validates identifiers, the order count bounds, and the optimization criteria.
func NewCreateBatchCommand(
	batchID kernel.UUID,
	driverID kernel.UUID,
	orderIDs []kernel.UUID,
	maxOrders int,
	maxDeviationKm float64,
	criteria route.Criteria,
) (CreateBatchCommand, error) {
	batchCommand := CreateBatchCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		batchCommand.setBatchID(batchID),
		batchCommand.setDriverID(driverID),
		batchCommand.setOrderIDs(orderIDs),
		batchCommand.setMaxOrders(maxOrders),
		batchCommand.setMaxDeviationKm(maxDeviationKm),
		batchCommand.setCriteria(criteria),
	); err != nil {
		return CreateBatchCommand{}, err
	}

	if len(orderIDs) > maxOrders {
		return CreateBatchCommand{}, fmt.Errorf("%w: %d orders, maximum %d",
			ErrTooManyOrders, len(orderIDs), maxOrders)
	}

	return batchCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateBatchCommand) Validate() error {
	return c.guard.Validate(ErrCreateBatchCommandIsNotConstructed)
}

// BatchID returns the identifier for the new batch.
func (c CreateBatchCommand) BatchID() kernel.UUID {
	return c.batchID
}

// DriverID returns the identifier of the driver carrying the batch.
func (c CreateBatchCommand) DriverID() kernel.UUID {
	return c.driverID
}

// OrderIDs returns the identifiers of the orders to batch together.
func (c CreateBatchCommand) OrderIDs() []kernel.UUID {
	ids := make([]kernel.UUID, len(c.orderIDs))
	copy(ids, c.orderIDs)
	return ids
}

// MaxOrders returns the upper bound on batch size.
func (c CreateBatchCommand) MaxOrders() int {
	return c.maxOrders
}

// MaxDeviationKm returns how far a pickup may lie from the driver's position.
func (c CreateBatchCommand) MaxDeviationKm() float64 {
	return c.maxDeviationKm
}

// Criteria returns the optimization criteria for the initial route.
func (c CreateBatchCommand) Criteria() route.Criteria {
	return c.criteria
}

func (c *CreateBatchCommand) setBatchID(batchID kernel.UUID) error {
	if err := batchID.Validate(); err != nil {
		return err
	}

	c.batchID = batchID
	return nil
}

func (c *CreateBatchCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *CreateBatchCommand) setOrderIDs(orderIDs []kernel.UUID) error {
	if len(orderIDs) < batch.MinOrdersPerBatch {
		return fmt.Errorf("%w: got %d orders", ErrMaxOrdersIsInvalid, len(orderIDs))
	}
	for _, id := range orderIDs {
		if err := id.Validate(); err != nil {
			return err
		}
	}

	c.orderIDs = make([]kernel.UUID, len(orderIDs))
	copy(c.orderIDs, orderIDs)
	return nil
}

func (c *CreateBatchCommand) setMaxOrders(maxOrders int) error {
	if maxOrders < batch.MinOrdersPerBatch {
		return ErrMaxOrdersIsInvalid
	}

	c.maxOrders = maxOrders
	return nil
}

func (c *CreateBatchCommand) setMaxDeviationKm(maxDeviationKm float64) error {
	if maxDeviationKm <= 0 {
		return ErrMaxDeviationIsInvalid
	}

	c.maxDeviationKm = maxDeviationKm
	return nil
}

func (c *CreateBatchCommand) setCriteria(criteria route.Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}

	c.criteria = criteria
	return nil
}

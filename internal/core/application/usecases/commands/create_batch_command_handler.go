package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// ErrOrderTooFarFromDriver is returned when an order's pickup lies beyond the
// allowed deviation from the driver's current position.
var ErrOrderTooFarFromDriver = errors.New("order pickup exceeds max deviation from driver")

// CreateBatchCommandHandler assembles a new delivery batch: it resolves the
// driver's position and the orders, predicts vendor ready windows, asks the
// optimizer for an initial route, and persists the resulting batch in Planned
// status. An infeasible optimization rejects the batch; no aggregate is
// constructed from a failed route.
type CreateBatchCommandHandler struct {
	uowFactory      UoWFactory
	optimizer       *services.RouteOptimizer
	prepEstimator   ports.PreparationEstimator
	driverLocations ports.DriverLocationProvider
	registry        *batch.Registry
}

// NewCreateBatchCommandHandler creates a handler for batch creation.
// All collaborators are required.
func NewCreateBatchCommandHandler(
	uowFactory UoWFactory,
	optimizer *services.RouteOptimizer,
	prepEstimator ports.PreparationEstimator,
	driverLocations ports.DriverLocationProvider,
	registry *batch.Registry,
) CreateBatchCommandHandler {
	return CreateBatchCommandHandler{
		uowFactory:      uowFactory,
		optimizer:       optimizer,
		prepEstimator:   prepEstimator,
		driverLocations: driverLocations,
		registry:        registry,
	}
}

// Handle processes the batch creation command.
func (h *CreateBatchCommandHandler) Handle(ctx context.Context, cmd CreateBatchCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	driverLocation, err := h.driverLocations.FetchDriverLocation(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders, err := uow.OrderRepository().GetAllByIDs(ctx, cmd.OrderIDs())
	if err != nil {
		return err
	}

	for _, o := range orders {
		deviation, err := driverLocation.DistanceKmTo(o.PickupLocation())
		if err != nil {
			return err
		}
		if deviation > cmd.MaxDeviationKm() {
			return fmt.Errorf("%w: order %s is %.1f km away, maximum %.1f km",
				ErrOrderTooFarFromDriver, o.ID(), deviation, cmd.MaxDeviationKm())
		}
	}

	windows, err := h.prepEstimator.Predict(ctx, orders)
	if err != nil {
		return err
	}

	optimizedRoute, err := h.optimizer.CalculateOptimalRoute(
		ctx, cmd.BatchID(), orders, driverLocation, cmd.Criteria(), windows, time.Now())
	if err != nil {
		return err
	}

	deliveryBatch, err := batch.NewDeliveryBatch(cmd.BatchID(), cmd.DriverID(), cmd.OrderIDs(), optimizedRoute)
	if err != nil {
		return err
	}

	if err = uow.BatchRepository().Add(ctx, deliveryBatch); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return h.registry.Add(deliveryBatch)
}

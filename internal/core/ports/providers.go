package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// LegCost is the resolved travel cost of one route leg between two stops.
type LegCost struct {
	DistanceKm        float64
	Duration          time.Duration
	DurationInTraffic time.Duration
}

// DistanceProvider resolves travel cost between two locations.
// The optimizer treats results as inputs obtained before computation begins;
// implementations may perform I/O but must respect the context deadline, and
// the coordinator maps a deadline miss onto a failed adjustment.
type DistanceProvider interface {
	LegCost(ctx context.Context, from kernel.Location, to kernel.Location) (LegCost, error)
}

// PreparationWindow is the predicted interval during which a vendor's order
// will be ready for pickup.
type PreparationWindow struct {
	ReadyFrom time.Time
	ReadyTo   time.Time
}

// Shifted returns the window pushed back by the given delay.
func (w PreparationWindow) Shifted(delay time.Duration) PreparationWindow {
	return PreparationWindow{
		ReadyFrom: w.ReadyFrom.Add(delay),
		ReadyTo:   w.ReadyTo.Add(delay),
	}
}

// PreparationEstimator predicts per-order vendor ready windows.
// The optimizer only consumes this output contract; prediction logic itself
// lives outside the core.
type PreparationEstimator interface {
	Predict(ctx context.Context, orders []*order.Order) (map[kernel.UUID]PreparationWindow, error)
}

// DriverLocationProvider resolves the current position of a driver.
type DriverLocationProvider interface {
	FetchDriverLocation(ctx context.Context, driverID kernel.UUID) (kernel.Location, error)
}

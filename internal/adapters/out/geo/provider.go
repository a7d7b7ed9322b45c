// Package geo provides travel cost and driver position adapters.
//
// The haversine provider estimates leg costs from straight-line distance and
// a configured average speed. It trades road-network accuracy for zero
// external dependencies, which keeps route planning available when no routing
// service is reachable.
package geo

import (
	"context"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// HaversineDistanceProvider resolves leg costs from great-circle distance.
type HaversineDistanceProvider struct {
	averageSpeedKmh float64
	trafficFactor   float64
}

// NewHaversineDistanceProvider creates a provider with the given cruising
// speed and traffic multiplier. The multiplier inflates the base duration to
// produce the in-traffic estimate and must be at least 1.
func NewHaversineDistanceProvider(averageSpeedKmh float64, trafficFactor float64) (*HaversineDistanceProvider, error) {
	if averageSpeedKmh <= 0 {
		return nil, errs.NewValueIsInvalidError("averageSpeedKmh")
	}
	if trafficFactor < 1 {
		return nil, errs.NewValueIsInvalidError("trafficFactor")
	}

	return &HaversineDistanceProvider{
		averageSpeedKmh: averageSpeedKmh,
		trafficFactor:   trafficFactor,
	}, nil
}

// LegCost estimates the travel cost between two locations.
func (p *HaversineDistanceProvider) LegCost(
	ctx context.Context,
	from kernel.Location,
	to kernel.Location,
) (ports.LegCost, error) {
	if err := ctx.Err(); err != nil {
		return ports.LegCost{}, err
	}

	distanceKm, err := from.DistanceKmTo(to)
	if err != nil {
		return ports.LegCost{}, err
	}
	duration := time.Duration(distanceKm / p.averageSpeedKmh * float64(time.Hour))

	return ports.LegCost{
		DistanceKm:        distanceKm,
		Duration:          duration,
		DurationInTraffic: time.Duration(float64(duration) * p.trafficFactor),
	}, nil
}

// InMemoryDriverLocationProvider keeps last known driver positions in memory.
// Positions are fed in by the HTTP adapter when a driver reports its state.
type InMemoryDriverLocationProvider struct {
	mu        sync.RWMutex
	positions map[kernel.UUID]kernel.Location
}

// NewInMemoryDriverLocationProvider creates an empty position store.
func NewInMemoryDriverLocationProvider() *InMemoryDriverLocationProvider {
	return &InMemoryDriverLocationProvider{
		positions: make(map[kernel.UUID]kernel.Location),
	}
}

// ReportDriverLocation stores the latest known position of a driver.
func (p *InMemoryDriverLocationProvider) ReportDriverLocation(driverID kernel.UUID, location kernel.Location) error {
	if err := driverID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("driverID", err)
	}
	if err := location.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("location", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions[driverID] = location
	return nil
}

// FetchDriverLocation returns the last reported position of a driver.
func (p *InMemoryDriverLocationProvider) FetchDriverLocation(
	ctx context.Context,
	driverID kernel.UUID,
) (kernel.Location, error) {
	if err := ctx.Err(); err != nil {
		return kernel.Location{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	location, ok := p.positions[driverID]
	if !ok {
		return kernel.Location{}, errs.NewObjectNotFoundError("driver location", driverID)
	}
	return location, nil
}

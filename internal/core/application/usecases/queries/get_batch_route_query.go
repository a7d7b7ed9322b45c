package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetBatchRouteQueryIsNotConstructed = errors.New(
	"GetBatchRouteQuery must be created via NewGetBatchRouteQuery constructor",
)

// GetBatchRouteQuery retrieves the accepted route of one batch, stop by stop,
// for courier-facing displays and monitoring.
type GetBatchRouteQuery struct {
	batchID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetBatchRouteQuery creates a query for the route of the given batch.
func NewGetBatchRouteQuery(batchID kernel.UUID) (GetBatchRouteQuery, error) {
	if err := batchID.Validate(); err != nil {
		return GetBatchRouteQuery{}, err
	}

	return GetBatchRouteQuery{
		batchID: batchID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetBatchRouteQuery) Validate() error {
	return q.guard.Validate(ErrGetBatchRouteQueryIsNotConstructed)
}

// BatchID returns the identifier of the batch whose route is requested.
func (q GetBatchRouteQuery) BatchID() kernel.UUID {
	return q.batchID
}

// GetBatchRouteQueryResponse is the read model for a batch route.
type GetBatchRouteQueryResponse struct {
	RouteID           kernel.UUID
	OptimizationScore float64
	TotalDistanceKm   float64
	TotalDuration     time.Duration
	TrafficCondition  string
	Waypoints         []WaypointResponse
}

// WaypointResponse is the read model for a single route stop.
type WaypointResponse struct {
	ID               kernel.UUID
	OrderID          kernel.UUID
	Kind             string
	Latitude         float64
	Longitude        float64
	Sequence         int
	EstimatedArrival time.Time
	Completed        bool
}

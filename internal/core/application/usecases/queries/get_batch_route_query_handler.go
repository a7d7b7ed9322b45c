package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetBatchRouteQueryHandler retrieves one batch's route and stops from the
// database with direct SQL.
type GetBatchRouteQueryHandler struct {
	db *gorm.DB
}

// NewGetBatchRouteQueryHandler creates a handler for batch route queries.
// Requires a GORM database connection.
func NewGetBatchRouteQueryHandler(db *gorm.DB) GetBatchRouteQueryHandler {
	return GetBatchRouteQueryHandler{db: db}
}

// Handle executes the query. Waypoints are returned in visit order. Returns
// ObjectNotFoundError when the batch has no stored route, which is the case
// for cancelled batches.
func (h GetBatchRouteQueryHandler) Handle(
	ctx context.Context,
	query GetBatchRouteQuery,
) (GetBatchRouteQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetBatchRouteQueryResponse{}, err
	}

	var response GetBatchRouteQueryResponse

	var routeRow struct {
		ID                uuid.UUID
		OptimizationScore float64
		TotalDistanceKm   float64
		TotalDurationNs   int64
		TrafficCondition  int
	}
	err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			optimization_score,
			total_distance_km,
			total_duration_ns,
			traffic_condition
		FROM routes
		WHERE batch_id = ?
	`, query.BatchID().Bytes()).Scan(&routeRow).Error
	if err != nil {
		return GetBatchRouteQueryResponse{}, err
	}
	if routeRow.ID == uuid.Nil {
		return GetBatchRouteQueryResponse{},
			errs.NewObjectNotFoundError("route for batch", query.BatchID().String())
	}

	routeID, err := kernel.UUIDFromBytes(routeRow.ID[:])
	if err != nil {
		return GetBatchRouteQueryResponse{}, err
	}
	response.RouteID = routeID
	response.OptimizationScore = routeRow.OptimizationScore
	response.TotalDistanceKm = routeRow.TotalDistanceKm
	response.TotalDuration = time.Duration(routeRow.TotalDurationNs)
	response.TrafficCondition = route.TrafficSeverity(routeRow.TrafficCondition).String()

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_id,
			kind,
			location_lat,
			location_lng,
			sequence,
			estimated_arrival,
			completed
		FROM waypoints
		WHERE route_id = ?
		ORDER BY sequence
	`, routeRow.ID).Rows()
	if err != nil {
		return GetBatchRouteQueryResponse{}, err
	}
	defer rows.Close()

	response.Waypoints = make([]WaypointResponse, 0)
	for rows.Next() {
		var wp WaypointResponse
		var id, orderID uuid.UUID
		var kind int

		err = rows.Scan(
			&id,
			&orderID,
			&kind,
			&wp.Latitude,
			&wp.Longitude,
			&wp.Sequence,
			&wp.EstimatedArrival,
			&wp.Completed,
		)
		if err != nil {
			return GetBatchRouteQueryResponse{}, err
		}

		waypointID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return GetBatchRouteQueryResponse{}, idErr
		}
		wp.ID = waypointID

		owner, idErr := kernel.UUIDFromBytes(orderID[:])
		if idErr != nil {
			return GetBatchRouteQueryResponse{}, idErr
		}
		wp.OrderID = owner

		wp.Kind = route.WaypointType(kind).String()
		response.Waypoints = append(response.Waypoints, wp)
	}

	if err = rows.Err(); err != nil {
		return GetBatchRouteQueryResponse{}, err
	}

	return response, nil
}

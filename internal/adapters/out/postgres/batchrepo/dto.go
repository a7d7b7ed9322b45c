// Package batchrepo provides data transfer objects and mapping functions for
// delivery batch persistence. A batch row owns one route row, which owns its
// waypoint rows; batch membership is a separate join table preserving order
// positions. Route progress is persisted as completion flags on waypoints and
// replayed on restore.
package batchrepo

import (
	"sort"
	"time"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"

	"github.com/google/uuid"
)

// BatchDTO represents the database structure for persisting batch aggregates.
type BatchDTO struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverID             uuid.UUID `gorm:"type:uuid;not null;index"`
	Status               int       `gorm:"index"`
	TotalDistanceKm      float64   `gorm:"type:double precision"`
	EstimatedDurationNs  int64
	OptimizationScore    float64 `gorm:"type:double precision"`
	ActualStartTime      *time.Time
	ActualCompletionTime *time.Time
	CancelReason         string `gorm:"type:varchar(255)"`

	Orders []BatchOrderDTO `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
	Route  *RouteDTO       `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for batch entities.
func (BatchDTO) TableName() string {
	return "batches"
}

// BatchOrderDTO links a batch to one of its orders, preserving the position
// the order held when the batch was created.
type BatchOrderDTO struct {
	BatchID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position int       `gorm:"not null"`
}

// TableName specifies the database table name for batch membership rows.
func (BatchOrderDTO) TableName() string {
	return "batch_orders"
}

// RouteDTO represents the database structure for persisting optimized routes.
type RouteDTO struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TotalDistanceKm     float64   `gorm:"type:double precision"`
	TotalDurationNs     int64
	DurationInTrafficNs int64
	OptimizationScore   float64 `gorm:"type:double precision"`
	TrafficCondition    int
	CalculatedAt        time.Time
	CriteriaDistance    float64 `gorm:"type:double precision"`
	CriteriaPreparation float64 `gorm:"type:double precision"`
	CriteriaTraffic     float64 `gorm:"type:double precision"`
	CriteriaWindow      float64 `gorm:"type:double precision"`

	Waypoints []WaypointDTO `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for route entities.
func (RouteDTO) TableName() string {
	return "routes"
}

// WaypointDTO represents the database structure for persisting route stops.
// Completed and CompletedAt carry the batch's route progress.
type WaypointDTO struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey"`
	RouteID           uuid.UUID   `gorm:"type:uuid;not null;index"`
	OrderID           uuid.UUID   `gorm:"type:uuid;not null"`
	Kind              int         `gorm:"not null"`
	Location          LocationDTO `gorm:"embedded;embeddedPrefix:location_"`
	Sequence          int         `gorm:"not null"`
	EstimatedArrival  time.Time
	ServiceDurationNs int64
	Completed         bool
	CompletedAt       *time.Time
}

// TableName specifies the database table name for waypoint entities.
func (WaypointDTO) TableName() string {
	return "waypoints"
}

// LocationDTO represents embedded geographic coordinates.
type LocationDTO struct {
	Lat float64 `gorm:"type:double precision"`
	Lng float64 `gorm:"type:double precision"`
}

// fromDomain converts a batch domain aggregate to its database representation.
func fromDomain(b *batch.DeliveryBatch) BatchDTO {
	batchID := b.ID().Bytes()

	orders := make([]BatchOrderDTO, 0, len(b.OrderIDs()))
	for i, orderID := range b.OrderIDs() {
		orders = append(orders, BatchOrderDTO{
			BatchID:  batchID,
			OrderID:  orderID.Bytes(),
			Position: i,
		})
	}

	dto := BatchDTO{
		ID:                   batchID,
		DriverID:             b.DriverID().Bytes(),
		Status:               int(b.Status()),
		TotalDistanceKm:      b.TotalDistanceKm(),
		EstimatedDurationNs:  int64(b.EstimatedDuration()),
		OptimizationScore:    b.OptimizationScore(),
		ActualStartTime:      b.ActualStartTime(),
		ActualCompletionTime: b.ActualCompletionTime(),
		CancelReason:         b.CancelReason(),
		Orders:               orders,
	}

	if b.Route() != nil {
		routeDTO := routeFromDomain(b.Route(), batchID, b.Progress())
		dto.Route = &routeDTO
	}
	return dto
}

func routeFromDomain(r *route.OptimizedRoute, batchID uuid.UUID, progress *route.Progress) RouteDTO {
	routeID := r.ID().Bytes()
	criteria := r.Criteria()

	waypoints := make([]WaypointDTO, 0, r.WaypointCount())
	for _, wp := range r.Waypoints() {
		completed := progress != nil && progress.IsCompleted(wp.ID())
		var completedAt *time.Time
		if completed {
			at := progress.LastUpdated()
			completedAt = &at
		}

		waypoints = append(waypoints, WaypointDTO{
			ID:      wp.ID().Bytes(),
			RouteID: routeID,
			OrderID: wp.OrderID().Bytes(),
			Kind:    int(wp.Type()),
			Location: LocationDTO{
				Lat: wp.Location().Latitude(),
				Lng: wp.Location().Longitude(),
			},
			Sequence:          wp.Sequence(),
			EstimatedArrival:  wp.EstimatedArrival(),
			ServiceDurationNs: int64(wp.EstimatedServiceDuration()),
			Completed:         completed,
			CompletedAt:       completedAt,
		})
	}

	return RouteDTO{
		ID:                  routeID,
		BatchID:             batchID,
		TotalDistanceKm:     r.TotalDistanceKm(),
		TotalDurationNs:     int64(r.TotalDuration()),
		DurationInTrafficNs: int64(r.DurationInTraffic()),
		OptimizationScore:   r.OptimizationScore(),
		TrafficCondition:    int(r.TrafficCondition()),
		CalculatedAt:        r.CalculatedAt(),
		CriteriaDistance:    criteria.DistanceWeight(),
		CriteriaPreparation: criteria.PreparationWeight(),
		CriteriaTraffic:     criteria.TrafficWeight(),
		CriteriaWindow:      criteria.WindowWeight(),
		Waypoints:           waypoints,
	}
}

// toDomain converts a database DTO to a batch domain aggregate. Route
// progress is replayed from waypoint completion flags in sequence order.
func toDomain(dto BatchDTO) (*batch.DeliveryBatch, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}

	sort.Slice(dto.Orders, func(i, j int) bool {
		return dto.Orders[i].Position < dto.Orders[j].Position
	})
	orderIDs := make([]kernel.UUID, 0, len(dto.Orders))
	for _, row := range dto.Orders {
		orderID, idErr := kernel.UUIDFromBytes(row.OrderID[:])
		if idErr != nil {
			return nil, idErr
		}
		orderIDs = append(orderIDs, orderID)
	}

	var (
		currentRoute *route.OptimizedRoute
		progress     *route.Progress
	)
	if dto.Route != nil {
		currentRoute, err = routeToDomain(*dto.Route)
		if err != nil {
			return nil, err
		}

		if dto.ActualStartTime != nil {
			progress, err = progressFromWaypoints(currentRoute.ID(), dto.Route.Waypoints)
			if err != nil {
				return nil, err
			}
		}
	}

	return batch.RestoreBatch(
		id,
		driverID,
		batch.Status(dto.Status),
		orderIDs,
		currentRoute,
		progress,
		dto.TotalDistanceKm,
		time.Duration(dto.EstimatedDurationNs),
		dto.OptimizationScore,
		dto.ActualStartTime,
		dto.ActualCompletionTime,
		dto.CancelReason,
	)
}

func routeToDomain(dto RouteDTO) (*route.OptimizedRoute, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	batchID, err := kernel.UUIDFromBytes(dto.BatchID[:])
	if err != nil {
		return nil, err
	}

	criteria, err := route.NewCriteria(
		dto.CriteriaDistance, dto.CriteriaPreparation, dto.CriteriaTraffic, dto.CriteriaWindow)
	if err != nil {
		return nil, err
	}

	sort.Slice(dto.Waypoints, func(i, j int) bool {
		return dto.Waypoints[i].Sequence < dto.Waypoints[j].Sequence
	})
	waypoints := make([]route.Waypoint, 0, len(dto.Waypoints))
	for _, row := range dto.Waypoints {
		wp, wpErr := waypointToDomain(row)
		if wpErr != nil {
			return nil, wpErr
		}
		waypoints = append(waypoints, wp)
	}

	return route.NewOptimizedRoute(
		id,
		batchID,
		waypoints,
		dto.TotalDistanceKm,
		time.Duration(dto.TotalDurationNs),
		time.Duration(dto.DurationInTrafficNs),
		dto.OptimizationScore,
		criteria,
		dto.CalculatedAt,
		route.TrafficSeverity(dto.TrafficCondition),
	)
}

func waypointToDomain(dto WaypointDTO) (route.Waypoint, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return route.Waypoint{}, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return route.Waypoint{}, err
	}

	loc, err := kernel.NewLocation(dto.Location.Lat, dto.Location.Lng)
	if err != nil {
		return route.Waypoint{}, err
	}

	return route.NewWaypoint(
		id,
		orderID,
		route.WaypointType(dto.Kind),
		loc,
		dto.Sequence,
		dto.EstimatedArrival,
		time.Duration(dto.ServiceDurationNs),
	)
}

func progressFromWaypoints(routeID kernel.UUID, waypoints []WaypointDTO) (*route.Progress, error) {
	progress, err := route.NewProgress(routeID, len(waypoints))
	if err != nil {
		return nil, err
	}

	for _, row := range waypoints {
		if !row.Completed {
			continue
		}
		at := time.Time{}
		if row.CompletedAt != nil {
			at = *row.CompletedAt
		}
		id, idErr := kernel.UUIDFromBytes(row.ID[:])
		if idErr != nil {
			return nil, idErr
		}
		progress.MarkCompleted(id, row.Sequence, at)
	}
	return progress, nil
}

// Package http exposes the batch lifecycle and read models over REST.
package http

import (
	"errors"
	"net/http"
	"time"

	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/core/application/realtime"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server wires HTTP requests onto application use cases.
type Server struct {
	// Command handlers
	createBatchHandler       commands.CreateBatchCommandHandler
	startBatchHandler        commands.StartBatchCommandHandler
	pauseBatchHandler        commands.PauseBatchCommandHandler
	resumeBatchHandler       commands.ResumeBatchCommandHandler
	completeBatchHandler     commands.CompleteBatchCommandHandler
	cancelBatchHandler       commands.CancelBatchCommandHandler
	completeWaypointHandler  commands.CompleteWaypointCommandHandler
	updateOrderStatusHandler commands.UpdateOrderStatusCommandHandler

	// Query handlers
	getActiveBatchesHandler queries.GetActiveBatchesQueryHandler
	getBatchRouteHandler    queries.GetBatchRouteQueryHandler

	// Real-time ingress
	coordinator     *realtime.AdjustmentCoordinator
	driverLocations *geo.InMemoryDriverLocationProvider
}

// NewServer creates an HTTP server with the required command and query handlers.
func NewServer(
	createBatchHandler commands.CreateBatchCommandHandler,
	startBatchHandler commands.StartBatchCommandHandler,
	pauseBatchHandler commands.PauseBatchCommandHandler,
	resumeBatchHandler commands.ResumeBatchCommandHandler,
	completeBatchHandler commands.CompleteBatchCommandHandler,
	cancelBatchHandler commands.CancelBatchCommandHandler,
	completeWaypointHandler commands.CompleteWaypointCommandHandler,
	updateOrderStatusHandler commands.UpdateOrderStatusCommandHandler,
	getActiveBatchesHandler queries.GetActiveBatchesQueryHandler,
	getBatchRouteHandler queries.GetBatchRouteQueryHandler,
	coordinator *realtime.AdjustmentCoordinator,
	driverLocations *geo.InMemoryDriverLocationProvider,
) *Server {
	return &Server{
		createBatchHandler:       createBatchHandler,
		startBatchHandler:        startBatchHandler,
		pauseBatchHandler:        pauseBatchHandler,
		resumeBatchHandler:       resumeBatchHandler,
		completeBatchHandler:     completeBatchHandler,
		cancelBatchHandler:       cancelBatchHandler,
		completeWaypointHandler:  completeWaypointHandler,
		updateOrderStatusHandler: updateOrderStatusHandler,
		getActiveBatchesHandler:  getActiveBatchesHandler,
		getBatchRouteHandler:     getBatchRouteHandler,
		coordinator:              coordinator,
		driverLocations:          driverLocations,
	}
}

// RegisterRoutes mounts all endpoints under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/batches", s.GetBatches)
	api.POST("/batches", s.CreateBatch)
	api.GET("/batches/:batchID/route", s.GetBatchRoute)

	api.POST("/batches/:batchID/start", s.StartBatch)
	api.POST("/batches/:batchID/pause", s.PauseBatch)
	api.POST("/batches/:batchID/resume", s.ResumeBatch)
	api.POST("/batches/:batchID/complete", s.CompleteBatch)
	api.POST("/batches/:batchID/cancel", s.CancelBatch)

	api.POST("/batches/:batchID/waypoints/:waypointID/complete", s.CompleteWaypoint)
	api.POST("/batches/:batchID/orders/:orderID/status", s.UpdateOrderStatus)

	api.POST("/batches/:batchID/events", s.ReportEvent)
	api.POST("/batches/:batchID/conditions", s.ReportConditions)
	api.POST("/drivers/:driverID/location", s.ReportDriverLocation)
}

// Error is the JSON error body returned by every endpoint.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, Error{Code: status, Message: message})
}

// failure maps application errors onto HTTP statuses.
func failure(ctx echo.Context, err error) error {
	var notFound *errs.ObjectNotFoundError
	switch {
	case errors.As(err, &notFound):
		return errorResponse(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, batch.ErrInvalidStateForOperation),
		errors.Is(err, order.ErrIllegalTransition):
		return errorResponse(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, route.ErrInfeasibleRoute):
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	default:
		return errorResponse(ctx, http.StatusInternalServerError, err.Error())
	}
}

func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(ctx.Param(name))
	if err != nil {
		return kernel.UUID{}, err
	}
	return id, nil
}

// CreateBatchRequest is the body of POST /api/v1/batches.
type CreateBatchRequest struct {
	DriverID       string   `json:"driver_id"`
	OrderIDs       []string `json:"order_ids"`
	MaxOrders      int      `json:"max_orders"`
	MaxDeviationKm float64  `json:"max_deviation_km"`

	// Optional criteria weights. All four must be present together and
	// sum to 1; when omitted the balanced defaults apply.
	DistanceWeight    *float64 `json:"distance_weight,omitempty"`
	PreparationWeight *float64 `json:"preparation_weight,omitempty"`
	TrafficWeight     *float64 `json:"traffic_weight,omitempty"`
	WindowWeight      *float64 `json:"window_weight,omitempty"`
}

// CreateBatchResponse returns the identifier of the created batch.
type CreateBatchResponse struct {
	ID string `json:"id"`
}

// CreateBatch handles POST /api/v1/batches.
func (s *Server) CreateBatch(ctx echo.Context) error {
	var req CreateBatchRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid driver_id: "+err.Error())
	}

	orderIDs := make([]kernel.UUID, 0, len(req.OrderIDs))
	for _, raw := range req.OrderIDs {
		orderID, idErr := kernel.UUIDFromString(raw)
		if idErr != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid order id: "+idErr.Error())
		}
		orderIDs = append(orderIDs, orderID)
	}

	criteria := route.DefaultCriteria()
	if req.DistanceWeight != nil || req.PreparationWeight != nil ||
		req.TrafficWeight != nil || req.WindowWeight != nil {
		if req.DistanceWeight == nil || req.PreparationWeight == nil ||
			req.TrafficWeight == nil || req.WindowWeight == nil {
			return errorResponse(ctx, http.StatusBadRequest,
				"criteria weights must be provided together")
		}
		criteria, err = route.NewCriteria(
			*req.DistanceWeight, *req.PreparationWeight, *req.TrafficWeight, *req.WindowWeight)
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid criteria: "+err.Error())
		}
	}

	batchID := kernel.NewUUID()
	cmd, err := commands.NewCreateBatchCommand(
		batchID, driverID, orderIDs, req.MaxOrders, req.MaxDeviationKm, criteria)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch data: "+err.Error())
	}

	if err := s.createBatchHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, CreateBatchResponse{ID: batchID.String()})
}

// GetBatches handles GET /api/v1/batches.
func (s *Server) GetBatches(ctx echo.Context) error {
	batches, err := s.getActiveBatchesHandler.Handle(
		ctx.Request().Context(), queries.NewGetActiveBatchesQuery())
	if err != nil {
		return failure(ctx, err)
	}

	response := make([]BatchSummary, len(batches))
	for i, b := range batches {
		response[i] = BatchSummary{
			ID:                b.ID.String(),
			DriverID:          b.DriverID.String(),
			Status:            b.Status,
			OrderCount:        b.OrderCount,
			TotalDistanceKm:   b.TotalDistanceKm,
			OptimizationScore: b.OptimizationScore,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// BatchSummary is one in-flight batch in the GET /batches response.
type BatchSummary struct {
	ID                string  `json:"id"`
	DriverID          string  `json:"driver_id"`
	Status            string  `json:"status"`
	OrderCount        int     `json:"order_count"`
	TotalDistanceKm   float64 `json:"total_distance_km"`
	OptimizationScore float64 `json:"optimization_score"`
}

// RouteResponse is the body of GET /batches/:batchID/route.
type RouteResponse struct {
	RouteID           string         `json:"route_id"`
	OptimizationScore float64        `json:"optimization_score"`
	TotalDistanceKm   float64        `json:"total_distance_km"`
	TotalDurationSec  float64        `json:"total_duration_sec"`
	TrafficCondition  string         `json:"traffic_condition"`
	Waypoints         []WaypointItem `json:"waypoints"`
}

// WaypointItem is one stop in the route response, in visit order.
type WaypointItem struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	Kind             string    `json:"kind"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Sequence         int       `json:"sequence"`
	EstimatedArrival time.Time `json:"estimated_arrival"`
	Completed        bool      `json:"completed"`
}

// GetBatchRoute handles GET /api/v1/batches/:batchID/route.
func (s *Server) GetBatchRoute(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	query, err := queries.NewGetBatchRouteQuery(batchID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := s.getBatchRouteHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return failure(ctx, err)
	}

	waypoints := make([]WaypointItem, len(result.Waypoints))
	for i, wp := range result.Waypoints {
		waypoints[i] = WaypointItem{
			ID:               wp.ID.String(),
			OrderID:          wp.OrderID.String(),
			Kind:             wp.Kind,
			Latitude:         wp.Latitude,
			Longitude:        wp.Longitude,
			Sequence:         wp.Sequence,
			EstimatedArrival: wp.EstimatedArrival,
			Completed:        wp.Completed,
		}
	}

	return ctx.JSON(http.StatusOK, RouteResponse{
		RouteID:           result.RouteID.String(),
		OptimizationScore: result.OptimizationScore,
		TotalDistanceKm:   result.TotalDistanceKm,
		TotalDurationSec:  result.TotalDuration.Seconds(),
		TrafficCondition:  result.TrafficCondition,
		Waypoints:         waypoints,
	})
}

// StartBatch handles POST /api/v1/batches/:batchID/start.
func (s *Server) StartBatch(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	cmd, err := commands.NewStartBatchCommand(batchID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.startBatchHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// PauseBatch handles POST /api/v1/batches/:batchID/pause.
func (s *Server) PauseBatch(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	cmd, err := commands.NewPauseBatchCommand(batchID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.pauseBatchHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ResumeBatch handles POST /api/v1/batches/:batchID/resume.
func (s *Server) ResumeBatch(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	cmd, err := commands.NewResumeBatchCommand(batchID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.resumeBatchHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CompleteBatch handles POST /api/v1/batches/:batchID/complete.
func (s *Server) CompleteBatch(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	cmd, err := commands.NewCompleteBatchCommand(batchID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.completeBatchHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CancelBatchRequest is the body of POST /batches/:batchID/cancel.
type CancelBatchRequest struct {
	Reason string `json:"reason"`
}

// CancelBatch handles POST /api/v1/batches/:batchID/cancel.
func (s *Server) CancelBatch(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	var req CancelBatchRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	cmd, err := commands.NewCancelBatchCommand(batchID, req.Reason)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.cancelBatchHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CompleteWaypoint handles POST /batches/:batchID/waypoints/:waypointID/complete.
func (s *Server) CompleteWaypoint(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}
	waypointID, err := pathUUID(ctx, "waypointID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid waypoint id")
	}

	cmd, err := commands.NewCompleteWaypointCommand(batchID, waypointID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.completeWaypointHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// UpdateOrderStatusRequest carries the driver-reported status. Legacy synonyms
// are accepted; unrecognized values degrade to picked_up downstream.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus handles POST /batches/:batchID/orders/:orderID/status.
func (s *Server) UpdateOrderStatus(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}
	orderID, err := pathUUID(ctx, "orderID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid order id")
	}

	var req UpdateOrderStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(batchID, orderID, req.Status)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.updateOrderStatusHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return failure(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ReportEventRequest is a disruption report against a batch's active route.
// Type is "traffic_incident" or "preparation_delay".
type ReportEventRequest struct {
	Type            string `json:"type"`
	TrafficSeverity string `json:"traffic_severity,omitempty"`
	DelayMinutes    int    `json:"delay_minutes,omitempty"`
}

// ReportEvent handles POST /batches/:batchID/events. Accepted events are
// queued for the adjustment coordinator; a full queue rejects the report.
func (s *Server) ReportEvent(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	var req ReportEventRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	query, err := queries.NewGetBatchRouteQuery(batchID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	current, err := s.getBatchRouteHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return failure(ctx, err)
	}

	var ev route.Event
	switch req.Type {
	case "traffic_incident":
		severity, sevErr := route.ParseTrafficSeverity(req.TrafficSeverity)
		if sevErr != nil {
			return errorResponse(ctx, http.StatusBadRequest, sevErr.Error())
		}
		ev = route.NewTrafficIncidentEvent(current.RouteID, severity, time.Now())
	case "preparation_delay":
		if req.DelayMinutes <= 0 {
			return errorResponse(ctx, http.StatusBadRequest, "delay_minutes must be positive")
		}
		ev = route.NewPreparationDelayEvent(
			current.RouteID, time.Duration(req.DelayMinutes)*time.Minute, time.Now())
	default:
		return errorResponse(ctx, http.StatusBadRequest, "unknown event type: "+req.Type)
	}

	if !s.coordinator.Publish(realtime.BatchEvent{BatchID: batchID, Event: ev}) {
		return errorResponse(ctx, http.StatusTooManyRequests, "event queue is full")
	}
	return ctx.NoContent(http.StatusAccepted)
}

// ReportConditionsRequest describes ambient conditions around a batch. The
// coordinator debounces these before requesting a route adjustment.
type ReportConditionsRequest struct {
	Traffic          string   `json:"traffic,omitempty"`
	WeatherImpact    float64  `json:"weather_impact,omitempty"`
	PrepDelayMinutes int      `json:"prep_delay_minutes,omitempty"`
	RemovedOrderIDs  []string `json:"removed_order_ids,omitempty"`
}

// ReportConditions handles POST /batches/:batchID/conditions.
func (s *Server) ReportConditions(ctx echo.Context) error {
	batchID, err := pathUUID(ctx, "batchID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid batch id")
	}

	var req ReportConditionsRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	conditions := services.RealTimeConditions{
		WeatherImpact:    req.WeatherImpact,
		PreparationDelay: time.Duration(req.PrepDelayMinutes) * time.Minute,
	}
	if req.Traffic != "" {
		severity, sevErr := route.ParseTrafficSeverity(req.Traffic)
		if sevErr != nil {
			return errorResponse(ctx, http.StatusBadRequest, sevErr.Error())
		}
		conditions.Traffic = severity
	}
	for _, raw := range req.RemovedOrderIDs {
		orderID, idErr := kernel.UUIDFromString(raw)
		if idErr != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid order id: "+idErr.Error())
		}
		conditions.RemovedOrderIDs = append(conditions.RemovedOrderIDs, orderID)
	}

	s.coordinator.UpdateConditions(batchID, conditions)
	return ctx.NoContent(http.StatusAccepted)
}

// DriverLocationRequest is a driver position report.
type DriverLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReportDriverLocation handles POST /drivers/:driverID/location.
func (s *Server) ReportDriverLocation(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "driverID")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid driver id")
	}

	var req DriverLocationRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	location, err := kernel.NewLocation(req.Latitude, req.Longitude)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.driverLocations.ReportDriverLocation(driverID, location); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}
	return ctx.NoContent(http.StatusNoContent)
}

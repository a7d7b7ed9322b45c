package batch

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/pkg/errs"
)

// MinOrdersPerBatch is the smallest order group worth batching.
const MinOrdersPerBatch = 2

var (
	// ErrBatchIsNotConstructed is returned when a DeliveryBatch instance was not
	// created through the NewDeliveryBatch factory method.
	ErrBatchIsNotConstructed = errors.New("DeliveryBatch must be created via NewDeliveryBatch constructor")

	// ErrOrderNotInBatch is returned when an order-level operation references an
	// order the batch does not carry.
	ErrOrderNotInBatch = errors.New("order does not belong to batch")
)

// DeliveryBatch is the aggregate root for a group of orders traveling together
// with a single courier. It owns the batch status state machine, the accepted
// route, and the derived route progress; no other component mutates them
// directly.
//
// DeliveryBatch follows these invariants:
//   - Must carry at least MinOrdersPerBatch orders
//   - Status transitions follow the documented machine
//   - Completed/Cancelled batches accept no further mutation
//   - Route metrics (distance, duration, score) mirror the absorbed route
type DeliveryBatch struct {
	id       kernel.UUID
	driverID kernel.UUID
	status   Status
	orderIDs []kernel.UUID

	currentRoute *route.OptimizedRoute
	progress     *route.Progress

	totalDistanceKm   float64
	estimatedDuration time.Duration
	optimizationScore float64

	actualStartTime      *time.Time
	actualCompletionTime *time.Time
	cancelReason         string

	isConstructed bool
}

// NewDeliveryBatch creates a batch in Planned status from an already-optimized
// route. The caller is responsible for having run the optimizer successfully;
// a batch must never be constructed from a failed optimization.
func NewDeliveryBatch(
	id kernel.UUID,
	driverID kernel.UUID,
	orderIDs []kernel.UUID,
	optimizedRoute *route.OptimizedRoute,
) (*DeliveryBatch, error) {
	if err := errors.Join(id.Validate(), driverID.Validate()); err != nil {
		return nil, err
	}

	if len(orderIDs) < MinOrdersPerBatch {
		return nil, errs.NewValueIsInvalidErrorWithCause("order count is invalid",
			fmt.Errorf("%d is less than the minimum of %d", len(orderIDs), MinOrdersPerBatch))
	}

	for _, orderID := range orderIDs {
		if err := orderID.Validate(); err != nil {
			return nil, err
		}
	}

	if err := optimizedRoute.Validate(); err != nil {
		return nil, err
	}

	ownedIDs := make([]kernel.UUID, len(orderIDs))
	copy(ownedIDs, orderIDs)

	b := &DeliveryBatch{
		id:            id,
		driverID:      driverID,
		status:        Planned,
		orderIDs:      ownedIDs,
		isConstructed: true,
	}
	b.absorbRouteMetrics(optimizedRoute)

	return b, nil
}

// Validate ensures the batch was created via NewDeliveryBatch.
func (b *DeliveryBatch) Validate() error {
	if b == nil || !b.isConstructed {
		return ErrBatchIsNotConstructed
	}
	return nil
}

// ID returns the batch's unique identifier.
func (b *DeliveryBatch) ID() kernel.UUID {
	return b.id
}

// DriverID returns the identifier of the courier carrying the batch.
func (b *DeliveryBatch) DriverID() kernel.UUID {
	return b.driverID
}

// Status returns the current lifecycle state of the batch.
func (b *DeliveryBatch) Status() Status {
	return b.status
}

// OrderIDs returns a copy of the batch's order identifiers.
func (b *DeliveryBatch) OrderIDs() []kernel.UUID {
	ids := make([]kernel.UUID, len(b.orderIDs))
	copy(ids, b.orderIDs)
	return ids
}

// ContainsOrder reports whether the batch carries the given order.
func (b *DeliveryBatch) ContainsOrder(orderID kernel.UUID) bool {
	for _, id := range b.orderIDs {
		if id.IsEqual(orderID) {
			return true
		}
	}
	return false
}

// Route returns the currently accepted route, or nil after cancellation.
func (b *DeliveryBatch) Route() *route.OptimizedRoute {
	return b.currentRoute
}

// Progress returns the derived route progress. Nil until the batch starts.
func (b *DeliveryBatch) Progress() *route.Progress {
	return b.progress
}

// TotalDistanceKm returns the absorbed route's total distance.
func (b *DeliveryBatch) TotalDistanceKm() float64 {
	return b.totalDistanceKm
}

// EstimatedDuration returns the absorbed route's estimated duration.
func (b *DeliveryBatch) EstimatedDuration() time.Duration {
	return b.estimatedDuration
}

// OptimizationScore returns the absorbed route's optimization score.
func (b *DeliveryBatch) OptimizationScore() float64 {
	return b.optimizationScore
}

// ActualStartTime returns when the batch went Active, or nil.
func (b *DeliveryBatch) ActualStartTime() *time.Time {
	return b.actualStartTime
}

// ActualCompletionTime returns when the batch completed, or nil.
func (b *DeliveryBatch) ActualCompletionTime() *time.Time {
	return b.actualCompletionTime
}

// CancelReason returns the reason recorded on cancellation, if any.
func (b *DeliveryBatch) CancelReason() string {
	return b.cancelReason
}

// Start moves the batch from Planned to Active on courier confirmation.
// Records the actual start time and begins progress tracking at waypoint
// sequence 1.
func (b *DeliveryBatch) Start(now time.Time) error {
	if err := b.Validate(); err != nil {
		return err
	}

	if b.status != Planned {
		return NewInvalidStateError("start", b.status)
	}

	progress, err := route.NewProgress(b.currentRoute.ID(), b.currentRoute.WaypointCount())
	if err != nil {
		return err
	}

	b.status = Active
	b.actualStartTime = &now
	b.progress = progress
	return nil
}

// Pause suspends an Active batch. The route is not recomputed.
func (b *DeliveryBatch) Pause() error {
	if err := b.Validate(); err != nil {
		return err
	}

	if b.status != Active {
		return NewInvalidStateError("pause", b.status)
	}

	b.status = Paused
	return nil
}

// Resume reactivates a Paused batch. Resuming does not reoptimize; callers
// wanting a fresh route must request it explicitly.
func (b *DeliveryBatch) Resume() error {
	if err := b.Validate(); err != nil {
		return err
	}

	if b.status != Paused {
		return NewInvalidStateError("resume", b.status)
	}

	b.status = Active
	return nil
}

// Complete finishes the batch from Active or Paused and records the
// completion time. Progress is not forced to 100%: an operator-forced
// completion is permitted and logged as a business event by the caller.
func (b *DeliveryBatch) Complete(now time.Time) error {
	if err := b.Validate(); err != nil {
		return err
	}

	if b.status != Active && b.status != Paused {
		return NewInvalidStateError("complete", b.status)
	}

	b.status = Completed
	b.actualCompletionTime = &now
	return nil
}

// Cancel aborts the batch from any non-terminal state and clears the active
// route reference.
func (b *DeliveryBatch) Cancel(reason string) error {
	if err := b.Validate(); err != nil {
		return err
	}

	if b.status.IsTerminal() {
		return NewInvalidStateError("cancel", b.status)
	}

	b.status = Cancelled
	b.cancelReason = reason
	b.currentRoute = nil
	return nil
}

// AbsorbRoute replaces the accepted route with a reoptimized one.
// Only non-terminal batches absorb routes; progress keeps its completed set
// and is rebased onto the new waypoint count.
func (b *DeliveryBatch) AbsorbRoute(newRoute *route.OptimizedRoute) error {
	if err := b.Validate(); err != nil {
		return err
	}

	if b.status.IsTerminal() {
		return NewInvalidStateError("absorb route", b.status)
	}

	if err := newRoute.Validate(); err != nil {
		return err
	}

	b.absorbRouteMetrics(newRoute)
	if b.progress != nil {
		b.progress.RebaseTotal(newRoute.WaypointCount())
	}
	return nil
}

// AbsorbAdjustedRoute replaces the route after a dynamic adjustment that may
// have added or removed orders mid-flight. The batch's order set is rebuilt
// from the orders the new route actually visits, so a removed order leaves
// the batch and an added one joins it.
func (b *DeliveryBatch) AbsorbAdjustedRoute(newRoute *route.OptimizedRoute) error {
	if err := b.AbsorbRoute(newRoute); err != nil {
		return err
	}

	seen := make(map[kernel.UUID]bool)
	ids := make([]kernel.UUID, 0, len(b.orderIDs))
	for _, wp := range newRoute.Waypoints() {
		if seen[wp.OrderID()] {
			continue
		}
		seen[wp.OrderID()] = true
		ids = append(ids, wp.OrderID())
	}
	b.orderIDs = ids
	return nil
}

// CompleteWaypoint applies a waypoint-completion event to the batch progress.
// Returns true if the event advanced progress, false for idempotent no-ops
// (duplicate or stale events). Only Active batches accept completions.
func (b *DeliveryBatch) CompleteWaypoint(waypointID kernel.UUID, now time.Time) (bool, error) {
	if err := b.Validate(); err != nil {
		return false, err
	}

	if b.status != Active {
		return false, NewInvalidStateError("complete waypoint", b.status)
	}

	waypoint, ok := b.currentRoute.WaypointByID(waypointID)
	if !ok {
		return false, errs.NewObjectNotFoundError("waypoint", waypointID.String())
	}

	return b.progress.MarkCompleted(waypointID, waypoint.Sequence(), now), nil
}

// UpdatePickupStatus applies a pickup-phase status transition to an order in
// the batch. Legality is delegated to the order status state machine; a
// rejected transition leaves batch-level progress untouched and surfaces the
// error to the caller.
func (b *DeliveryBatch) UpdatePickupStatus(o *order.Order, target order.Status) error {
	if target != order.OnRouteToVendor && target != order.ArrivedAtVendor &&
		target != order.PickedUp && target != order.Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("pickup status is invalid",
			fmt.Errorf("%s is not a pickup-phase status", target))
	}

	return b.updateOrderStatus(o, target)
}

// UpdateDeliveryStatus applies a delivery-phase status transition to an order
// in the batch. Legality is delegated to the order status state machine.
func (b *DeliveryBatch) UpdateDeliveryStatus(o *order.Order, target order.Status) error {
	if target != order.OnRouteToCustomer && target != order.ArrivedAtCustomer &&
		target != order.Delivered && target != order.Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("delivery status is invalid",
			fmt.Errorf("%s is not a delivery-phase status", target))
	}

	return b.updateOrderStatus(o, target)
}

func (b *DeliveryBatch) updateOrderStatus(o *order.Order, target order.Status) error {
	if err := b.Validate(); err != nil {
		return err
	}

	if b.status.IsTerminal() {
		return NewInvalidStateError("update order status", b.status)
	}

	if err := o.Validate(); err != nil {
		return err
	}

	if !b.ContainsOrder(o.ID()) {
		return fmt.Errorf("%w: order %s, batch %s", ErrOrderNotInBatch, o.ID(), b.id)
	}

	return o.ChangeStatus(target)
}

func (b *DeliveryBatch) absorbRouteMetrics(r *route.OptimizedRoute) {
	b.currentRoute = r
	b.totalDistanceKm = r.TotalDistanceKm()
	b.estimatedDuration = r.TotalDuration()
	b.optimizationScore = r.OptimizationScore()
}

// RestoreBatch reconstructs a batch from persisted state. Used by
// repositories; progress and route are restored as stored. The
// minimum order count applies at creation only: a route adjustment
// can shrink a running batch below it, and that state must still
// round-trip through the store.
func RestoreBatch(
	id kernel.UUID,
	driverID kernel.UUID,
	status Status,
	orderIDs []kernel.UUID,
	currentRoute *route.OptimizedRoute,
	progress *route.Progress,
	totalDistanceKm float64,
	estimatedDuration time.Duration,
	optimizationScore float64,
	actualStartTime *time.Time,
	actualCompletionTime *time.Time,
	cancelReason string,
) (*DeliveryBatch, error) {
	if err := errors.Join(id.Validate(), driverID.Validate(), status.Validate()); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return nil, errs.NewValueIsRequiredError("orderIDs")
	}

	ownedIDs := make([]kernel.UUID, len(orderIDs))
	copy(ownedIDs, orderIDs)

	b := &DeliveryBatch{
		id:                   id,
		driverID:             driverID,
		status:               status,
		orderIDs:             ownedIDs,
		currentRoute:         currentRoute,
		progress:             progress,
		totalDistanceKm:      totalDistanceKm,
		estimatedDuration:    estimatedDuration,
		optimizationScore:    optimizationScore,
		actualStartTime:      actualStartTime,
		actualCompletionTime: actualCompletionTime,
		cancelReason:         cancelReason,
		isConstructed:        true,
	}
	return b, nil
}

package order

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order represents a delivery order as the routing core sees it: an opaque
// record with an identity, a vendor pickup location, a customer drop-off
// location, a monetary value, and a lifecycle status.
//
// Order follows these invariants:
//   - Must have a valid unique identifier
//   - Must have valid pickup and drop-off locations
//   - Total value must not be negative
//   - Status transitions follow the adjacency table in Status
//   - Can only be created through NewOrder or RestoreOrder
//
// The struct uses private fields to ensure encapsulation and maintains its
// invariants through validated methods.
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// pickupLocation is the vendor position where the order is collected
	pickupLocation kernel.Location

	// dropoffLocation is the customer position where the order is delivered
	dropoffLocation kernel.Location

	// totalValue is the order's monetary value
	totalValue float64

	// status represents the current state in the delivery lifecycle
	status Status

	// isConstructed ensures the order was created via a factory method
	isConstructed bool
}

// NewOrder creates a new Order in Assigned status with validation.
// This is the only way to create a fresh Order, ensuring all invariants hold.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	vendor, _ := kernel.NewLocation(52.52, 13.40)
//	customer, _ := kernel.NewLocation(52.53, 13.42)
//	order, err := NewOrder(orderID, vendor, customer, 24.90)
//	if err != nil {
//	    // Handle validation error
//	}
func NewOrder(
	id kernel.UUID,
	pickupLocation kernel.Location,
	dropoffLocation kernel.Location,
	totalValue float64,
) (*Order, error) {
	order := &Order{
		status:        Assigned,
		isConstructed: true,
	}

	if err := errors.Join(
		order.setID(id),
		order.setPickupLocation(pickupLocation),
		order.setDropoffLocation(dropoffLocation),
		order.setTotalValue(totalValue),
	); err != nil {
		return nil, err
	}

	return order, nil
}

// RestoreOrder reconstructs an Order from persisted state, including its
// current status. Used by repositories; validates all fields the same way
// NewOrder does plus the status itself.
func RestoreOrder(
	id kernel.UUID,
	pickupLocation kernel.Location,
	dropoffLocation kernel.Location,
	totalValue float64,
	status Status,
) (*Order, error) {
	order, err := NewOrder(id, pickupLocation, dropoffLocation, totalValue)
	if err != nil {
		return nil, err
	}

	if err = status.Validate(); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("status is invalid", err)
	}

	order.status = status
	return order, nil
}

// Validate ensures the Order instance was properly constructed through a
// factory method. Call when reconstructing orders from external sources.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// PickupLocation returns the vendor location where the order is collected.
func (o *Order) PickupLocation() kernel.Location {
	return o.pickupLocation
}

// DropoffLocation returns the customer location where the order is delivered.
func (o *Order) DropoffLocation() kernel.Location {
	return o.dropoffLocation
}

// TotalValue returns the order's monetary value.
func (o *Order) TotalValue() float64 {
	return o.totalValue
}

// Status returns the current status of the order.
func (o *Order) Status() Status {
	return o.status
}

// ChangeStatus moves the order to a new status after consulting the state
// machine. A rejected transition leaves the order untouched and returns an
// IllegalTransitionError; the caller must not coerce the status.
func (o *Order) ChangeStatus(target Status) error {
	if err := o.Validate(); err != nil {
		return err
	}

	if err := target.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", err)
	}

	if err := ValidateTransition(o.status, target); err != nil {
		return err
	}

	o.status = target
	return nil
}

// Cancel moves the order to Cancelled. Fails if the order is already terminal.
func (o *Order) Cancel() error {
	return o.ChangeStatus(Cancelled)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setPickupLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	o.pickupLocation = location
	return nil
}

func (o *Order) setDropoffLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	o.dropoffLocation = location
	return nil
}

func (o *Order) setTotalValue(totalValue float64) error {
	if totalValue < 0 {
		return errs.NewValueIsInvalidErrorWithCause("total value is invalid",
			fmt.Errorf("%f is negative", totalValue))
	}
	o.totalValue = totalValue
	return nil
}

// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. It implements the repository pattern for the order
// aggregate, converting between domain entities and database rows.
package orderrepo

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Pickup and drop-off coordinates are embedded with prefixes so a single row
// carries both legs of the delivery.
type OrderDTO struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Pickup     LocationDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff    LocationDTO `gorm:"embedded;embeddedPrefix:dropoff_"`
	TotalValue float64     `gorm:"type:double precision;not null"`
	Status     int         `gorm:"index"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// LocationDTO represents embedded geographic coordinates.
type LocationDTO struct {
	Lat float64 `gorm:"type:double precision"`
	Lng float64 `gorm:"type:double precision"`
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID: o.ID().Bytes(),
		Pickup: LocationDTO{
			Lat: o.PickupLocation().Latitude(),
			Lng: o.PickupLocation().Longitude(),
		},
		Dropoff: LocationDTO{
			Lat: o.DropoffLocation().Latitude(),
			Lng: o.DropoffLocation().Longitude(),
		},
		TotalValue: o.TotalValue(),
		Status:     int(o.Status()),
	}
}

// toDomain converts a database DTO to an order domain aggregate.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewLocation(dto.Pickup.Lat, dto.Pickup.Lng)
	if err != nil {
		return nil, err
	}

	dropoff, err := kernel.NewLocation(dto.Dropoff.Lat, dto.Dropoff.Lng)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(id, pickup, dropoff, dto.TotalValue, order.Status(dto.Status))
}

package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Reads are assumed eventually consistent; the core does not manage
// transactions beyond the UnitOfWork boundary.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllByIDs retrieves the orders for the given identifiers.
	// Returns an error if any identifier cannot be resolved.
	GetAllByIDs(ctx context.Context, ids []kernel.UUID) ([]*order.Order, error)
}

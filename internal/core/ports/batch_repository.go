package ports

import (
	"context"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
)

// BatchRepository defines the persistence contract for delivery batch
// aggregates. The core emits batch mutations through this port and never
// assumes the write succeeded; it must remain fully operable against an
// in-memory implementation.
type BatchRepository interface {
	// Add persists a new batch aggregate to storage.
	Add(ctx context.Context, aggregate *batch.DeliveryBatch) error

	// Update persists changes to an existing batch aggregate, including its
	// current route and progress.
	Update(ctx context.Context, aggregate *batch.DeliveryBatch) error

	// Get retrieves a batch aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*batch.DeliveryBatch, error)

	// GetAllActive retrieves all batches currently in Active status.
	GetAllActive(ctx context.Context) ([]*batch.DeliveryBatch, error)
}

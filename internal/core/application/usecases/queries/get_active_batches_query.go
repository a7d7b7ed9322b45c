// Package queries contains read-side operations in the CQRS split. Handlers
// query the database directly with raw SQL and return flat read models,
// bypassing the aggregate repositories entirely.
package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetActiveBatchesQueryIsNotConstructed = errors.New(
	"GetActiveBatchesQuery must be created via NewGetActiveBatchesQuery constructor",
)

// GetActiveBatchesQuery retrieves all batches still in flight: planned,
// active or paused. Terminal batches are excluded.
//
// Example:
//
//	query := NewGetActiveBatchesQuery()
//	handler := NewGetActiveBatchesQueryHandler(db)
//
//	batches, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get active batches: %w", err)
//	}
//
//	for _, b := range batches {
//	    fmt.Printf("batch %s: %s, %d orders\n", b.ID, b.Status, b.OrderCount)
//	}
type GetActiveBatchesQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveBatchesQuery creates a query to retrieve in-flight batches.
func NewGetActiveBatchesQuery() GetActiveBatchesQuery {
	return GetActiveBatchesQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveBatchesQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveBatchesQueryIsNotConstructed)
}

// GetActiveBatchesQueryResponse is the read model for one in-flight batch.
type GetActiveBatchesQueryResponse struct {
	ID                kernel.UUID
	DriverID          kernel.UUID
	Status            string
	OrderCount        int
	TotalDistanceKm   float64
	OptimizationScore float64
}

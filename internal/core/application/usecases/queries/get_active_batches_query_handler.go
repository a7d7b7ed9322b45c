package queries

import (
	"context"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveBatchesQueryHandler retrieves in-flight batches from the database.
// Uses direct SQL for read performance; results never pass through the
// aggregate layer.
type GetActiveBatchesQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveBatchesQueryHandler creates a handler for in-flight batch
// queries. Requires a GORM database connection.
func NewGetActiveBatchesQueryHandler(db *gorm.DB) GetActiveBatchesQueryHandler {
	return GetActiveBatchesQueryHandler{db: db}
}

// Handle executes the query. Returns one row per non-terminal batch, sorted
// by batch ID for consistent output.
func (h GetActiveBatchesQueryHandler) Handle(
	ctx context.Context,
	query GetActiveBatchesQuery,
) ([]GetActiveBatchesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	batches := make([]GetActiveBatchesQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			b.id,
			b.driver_id,
			b.status,
			COUNT(bo.order_id) AS order_count,
			b.total_distance_km,
			b.optimization_score
		FROM batches b
		LEFT JOIN batch_orders bo ON bo.batch_id = b.id
		WHERE b.status IN (?, ?, ?)
		GROUP BY b.id, b.driver_id, b.status, b.total_distance_km, b.optimization_score
		ORDER BY b.id
	`, int(batch.Planned), int(batch.Active), int(batch.Paused)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resp GetActiveBatchesQueryResponse
		var id, driverID uuid.UUID
		var status int

		err = rows.Scan(
			&id,
			&driverID,
			&status,
			&resp.OrderCount,
			&resp.TotalDistanceKm,
			&resp.OptimizationScore,
		)
		if err != nil {
			return nil, err
		}

		batchID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = batchID

		driver, idErr := kernel.UUIDFromBytes(driverID[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.DriverID = driver

		resp.Status = batch.Status(status).String()
		batches = append(batches, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return batches, nil
}

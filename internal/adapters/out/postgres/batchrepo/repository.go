package batchrepo

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM.
type GormBatchRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormBatchRepository creates a new GORM batch repository.
func NewGormBatchRepository(db *gorm.DB, tracker aggregateTracker) *GormBatchRepository {
	return &GormBatchRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new batch with its route, waypoints and order memberships.
func (r *GormBatchRepository) Add(ctx context.Context, aggregate *batch.DeliveryBatch) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing batch. The route and membership rows are replaced
// wholesale: a reoptimized route carries a new identity, and a dynamic
// adjustment may have changed which orders the batch carries, so patching
// child rows in place would leave orphans behind.
func (r *GormBatchRepository) Update(ctx context.Context, aggregate *batch.DeliveryBatch) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	if err := db.Where("batch_id = ?", dto.ID).Delete(&RouteDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("batch_id = ?", dto.ID).Delete(&BatchOrderDTO{}).Error; err != nil {
		return err
	}

	result := db.Session(&gorm.Session{FullSaveAssociations: true}).Save(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a batch by ID with its route, waypoints and memberships.
func (r *GormBatchRepository) Get(ctx context.Context, id kernel.UUID) (*batch.DeliveryBatch, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto BatchDTO
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Preload("Route").
		Preload("Route.Waypoints").
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("batch", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllActive retrieves all batches currently in Active status. Rows that
// cannot be converted back to a domain batch are skipped so a single corrupt
// row does not take down the whole scan.
func (r *GormBatchRepository) GetAllActive(ctx context.Context) ([]*batch.DeliveryBatch, error) {
	var dtos []BatchDTO
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Preload("Route").
		Preload("Route.Waypoints").
		Find(&dtos, "status = ?", int(batch.Active)).Error
	if err != nil {
		return nil, err
	}

	batches := make([]*batch.DeliveryBatch, 0, len(dtos))
	for _, dto := range dtos {
		b, convErr := toDomain(dto)
		if convErr != nil {
			slog.Warn("skipping unconvertible batch row",
				"batch_id", dto.ID.String(), "error", convErr)
			continue
		}
		batches = append(batches, b)
	}

	return batches, nil
}

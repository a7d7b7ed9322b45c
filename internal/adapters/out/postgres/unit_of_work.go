// Package postgres provides the GORM-based implementation of the Unit of
// Work pattern. A unit of work maintains the set of aggregates touched by one
// business transaction and coordinates writing them out atomically.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	if err := uow.BatchRepository().Update(ctx, deliveryBatch); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Each business operation gets a fresh instance; instances are not safe for
// concurrent use.
package postgres

import (
	"context"

	"dispatch/internal/adapters/out/postgres/batchrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate represents an aggregate modified during the unit of work.
// Kept for outbox-style processing after a successful commit.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// GormUnitOfWorkFactory creates UnitOfWork instances over one GORM
// connection. Each Create call yields an isolated instance with its own
// transaction state.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work
// instances.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork ready for one business transaction.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates a database transaction and tracks the
// aggregates written within it. Repositories obtained from it run against
// the active transaction when one is open, and against the base connection
// otherwise.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
}

// Begin initiates a transaction. Calling Begin with a transaction already
// open is a no-op rather than a nested transaction.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit finalizes the current transaction. Returns
// gorm.ErrInvalidTransaction when none is open.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the current transaction. Returns
// gorm.ErrInvalidTransaction when none is open, which callers running
// rollback from a defer after a successful commit may ignore.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// BatchRepository returns a batch repository bound to the current
// transaction.
func (uow *GormUnitOfWork) BatchRepository() ports.BatchRepository {
	return batchrepo.NewGormBatchRepository(uow.conn(), uow)
}

// OrderRepository returns an order repository bound to the current
// transaction.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

// TrackAggregate records an aggregate touched during this unit of work.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

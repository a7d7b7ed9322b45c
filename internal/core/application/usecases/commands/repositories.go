// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// BatchRepoFactory provides access to the batch repository within a transaction.
	BatchRepoFactory interface {
		BatchRepository() ports.BatchRepository
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// BatchUoW manages transactions for batch-only operations.
	// Used when commands only modify the batch aggregate.
	BatchUoW interface {
		TxManager
		BatchRepoFactory
	}

	// BatchUoWFactory creates new batch unit of work instances.
	BatchUoWFactory interface {
		Create() BatchUoW
	}

	// UoW manages transactions across batch and order aggregates.
	// Used for commands that coordinate changes between both aggregate types.
	UoW interface {
		TxManager
		BatchRepoFactory
		OrderRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)

// RealTimeWatcher is the slice of the adjustment coordinator the lifecycle
// handlers need: stopping all pending timers for a batch once it pauses or
// reaches a terminal state, so no reoptimization fires against it afterwards.
type RealTimeWatcher interface {
	StopWatching(batchID kernel.UUID)
}

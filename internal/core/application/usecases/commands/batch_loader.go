package commands

import (
	"context"

	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// loadBatch resolves the live aggregate for a batch id. The registry is the
// authoritative in-memory owner; storage is consulted only for batches not
// yet registered in this process (restart, horizontal handover), and the
// loaded aggregate is registered so later commands hit the same instance.
// Callers must hold the registry's LockBatch for the id.
func loadBatch(
	ctx context.Context,
	registry *batch.Registry,
	repo ports.BatchRepository,
	id kernel.UUID,
) (*batch.DeliveryBatch, error) {
	if b, err := registry.Get(id); err == nil {
		return b, nil
	}

	b, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := registry.Add(b); err != nil {
		return nil, err
	}
	return b, nil
}

package jobs

import (
	"context"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/batch"

	"github.com/robfig/cron/v3"
)

// RegistrySyncJob loads persisted active batches into the in-memory registry.
// After a restart the registry starts empty; this job repopulates it so the
// coordinator and the lifecycle handlers see every batch still in flight.
// Batches already registered are left untouched, their in-memory aggregate is
// authoritative.
type RegistrySyncJob struct {
	uowFactory commands.BatchUoWFactory
	registry   *batch.Registry
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewRegistrySyncJob creates the registry synchronization job.
func NewRegistrySyncJob(
	uowFactory commands.BatchUoWFactory,
	registry *batch.Registry,
	logger *slog.Logger,
) *RegistrySyncJob {
	return &RegistrySyncJob{
		uowFactory: uowFactory,
		registry:   registry,
		cron:       cron.New(),
		logger:     logger.With("component", "registry_sync_job"),
	}
}

// Sync performs one load of all persisted active batches into the registry.
// Also called once at startup before jobs are scheduled.
func (j *RegistrySyncJob) Sync(ctx context.Context) error {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	batches, err := uow.BatchRepository().GetAllActive(ctx)
	if err != nil {
		return err
	}

	added := 0
	for _, b := range batches {
		if _, getErr := j.registry.Get(b.ID()); getErr == nil {
			continue
		}
		if addErr := j.registry.Add(b); addErr != nil {
			j.logger.WarnContext(ctx, "Skipping unregisterable batch",
				"batch_id", b.ID().String(), "error", addErr)
			continue
		}
		added++
	}

	if added > 0 {
		j.logger.InfoContext(ctx, "Registry synchronized", "added", added)
	}
	return nil
}

// Start begins the sync on a one minute interval.
func (j *RegistrySyncJob) Start() error {
	_, err := j.cron.AddFunc("@every 1m", func() {
		ctx := context.Background()
		if syncErr := j.Sync(ctx); syncErr != nil {
			j.logger.ErrorContext(ctx, "Registry sync failed", "error", syncErr)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Registry sync job started (running every minute)")
	return nil
}

// Stop stops the sync job.
func (j *RegistrySyncJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Registry sync job stopped")
}

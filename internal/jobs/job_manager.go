package jobs

import (
	"fmt"
	"log/slog"

	"dispatch/internal/core/application/realtime"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/batch"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	reoptimizationSweepJob *ReoptimizationSweepJob
	registrySyncJob        *RegistrySyncJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	coordinator *realtime.AdjustmentCoordinator,
	uowFactory commands.BatchUoWFactory,
	registry *batch.Registry,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		reoptimizationSweepJob: NewReoptimizationSweepJob(coordinator, logger),
		registrySyncJob:        NewRegistrySyncJob(uowFactory, registry, logger),
	}
}

// RegistrySync exposes the sync job for the one-time warmup at startup.
func (jm *JobManager) RegistrySync() *RegistrySyncJob {
	return jm.registrySyncJob
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.registrySyncJob.Start(); err != nil {
		return fmt.Errorf("failed to start registry sync job: %w", err)
	}

	if err := jm.reoptimizationSweepJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.registrySyncJob.Stop()
		return fmt.Errorf("failed to start reoptimization sweep job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.reoptimizationSweepJob.Stop()
	jm.registrySyncJob.Stop()
}

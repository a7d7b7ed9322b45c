package jobs

import (
	"context"
	"log/slog"

	"dispatch/internal/core/application/realtime"

	"github.com/robfig/cron/v3"
)

// ReoptimizationSweepJob periodically evaluates every active batch against
// its recent event window. Immediate triggers bypass this job; the sweep
// catches sustained degradation that no single event was severe enough to
// report.
type ReoptimizationSweepJob struct {
	coordinator *realtime.AdjustmentCoordinator
	cron        *cron.Cron
	logger      *slog.Logger
}

// NewReoptimizationSweepJob creates the periodic evaluation job.
func NewReoptimizationSweepJob(coordinator *realtime.AdjustmentCoordinator, logger *slog.Logger) *ReoptimizationSweepJob {
	return &ReoptimizationSweepJob{
		coordinator: coordinator,
		cron:        cron.New(),
		logger:      logger.With("component", "reoptimization_sweep_job"),
	}
}

// Start begins the sweep on a five minute interval.
func (j *ReoptimizationSweepJob) Start() error {
	_, err := j.cron.AddFunc("@every 5m", func() {
		ctx := context.Background()
		triggered := j.coordinator.EvaluateActive(ctx)
		if triggered > 0 {
			j.logger.InfoContext(ctx, "Periodic sweep triggered reoptimizations", "count", triggered)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Reoptimization sweep job started (running every 5 minutes)")
	return nil
}

// Stop stops the sweep job.
func (j *ReoptimizationSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Reoptimization sweep job stopped")
}

// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required for batch routing.
//
// # Available Jobs
//
// 1. ReoptimizationSweepJob - Runs every five minutes to evaluate the recent
// event window of every active batch and trigger reoptimization where the
// disruption threshold is crossed.
// 2. RegistrySyncJob - Runs every minute to load active batches persisted by
// other instances (or a previous run) into the in-memory registry.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(coordinator, uowFactory, registry, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - The sweep job only logs; a failed evaluation leaves the current route in
// place and the next sweep retries.
// - The sync job logs load failures and keeps whatever the registry already
// holds.
package jobs

// Package realtime decides WHEN an active batch's route is worth
// recomputing. The AdjustmentCoordinator watches a bounded window of route
// events per batch and converges three paths onto the same reoptimization
// commands: immediate triggers for severe disruptions, a periodic
// reevaluation driven by the sweep job, and a debounced path coalescing
// bursts of ambient condition updates. It never decides HOW to optimize;
// that stays with the route optimizer behind the command handlers.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/route"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"
)

const (
	// ImmediateDelayThreshold is the preparation delay beyond which a
	// reoptimization fires synchronously, without waiting for a tick.
	ImmediateDelayThreshold = 30 * time.Minute

	// PeriodicDelayThreshold is the preparation delay that makes the
	// periodic reevaluation predicate true.
	PeriodicDelayThreshold = 15 * time.Minute

	// DebounceQuietPeriod is how long ambient condition updates must stay
	// quiet before a coalesced adjustment runs.
	DebounceQuietPeriod = 5 * time.Second

	// reoptimizeTimeout bounds one recomputation, providers included.
	reoptimizeTimeout = 15 * time.Second

	eventQueueCapacity = 64
)

// ErrProviderTimeout reports that route data providers did not answer within
// the reoptimization budget. The previously accepted route stays in force.
var ErrProviderTimeout = errors.New("route data providers timed out during reoptimization")

// Reoptimizer recomputes a batch route from windowed events.
type Reoptimizer interface {
	Handle(ctx context.Context, cmd commands.ReoptimizeBatchCommand) error
}

// Adjuster folds ambient conditions into a batch route.
type Adjuster interface {
	Handle(ctx context.Context, cmd commands.AdjustBatchRouteCommand) error
}

var _ commands.RealTimeWatcher = (*AdjustmentCoordinator)(nil)

// BatchEvent pairs a route event with the batch it concerns, for delivery
// through the coordinator's intake queue.
type BatchEvent struct {
	BatchID kernel.UUID
	Event   route.Event
}

// AdjustmentCoordinator owns the per-batch event windows and debounce timers
// and holds the single-flight discipline: at most one recomputation may run
// per batch at a time, and a trigger arriving while one runs is dropped, not
// queued. Stopping a watch cancels all pending work for that batch.
type AdjustmentCoordinator struct {
	reoptimizer Reoptimizer
	adjuster    Adjuster
	registry    *batch.Registry
	scheduler   Scheduler
	logger      *slog.Logger

	intake chan BatchEvent

	mu      sync.Mutex
	watches map[kernel.UUID]*batchWatch
}

type batchWatch struct {
	window            *eventWindow
	pendingConditions *services.RealTimeConditions
	cancelDebounce    CancelFunc
	inFlight          bool
}

// NewAdjustmentCoordinator creates a coordinator over the given batch
// registry. The reoptimizer and adjuster are the command handlers the
// coordinator delegates to once it decides a recomputation is due.
func NewAdjustmentCoordinator(
	reoptimizer Reoptimizer,
	adjuster Adjuster,
	registry *batch.Registry,
	scheduler Scheduler,
	logger *slog.Logger,
) (*AdjustmentCoordinator, error) {
	if reoptimizer == nil {
		return nil, errs.NewValueIsRequiredError("reoptimizer")
	}
	if adjuster == nil {
		return nil, errs.NewValueIsRequiredError("adjuster")
	}
	if registry == nil {
		return nil, errs.NewValueIsRequiredError("registry")
	}
	if scheduler == nil {
		return nil, errs.NewValueIsRequiredError("scheduler")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	return &AdjustmentCoordinator{
		reoptimizer: reoptimizer,
		adjuster:    adjuster,
		registry:    registry,
		scheduler:   scheduler,
		logger:      logger.With("component", "adjustment_coordinator"),
		intake:      make(chan BatchEvent, eventQueueCapacity),
		watches:     make(map[kernel.UUID]*batchWatch),
	}, nil
}

// Publish enqueues an event for asynchronous handling by Run. It never
// blocks; when the queue is full the event is dropped and false is returned,
// relying on the periodic reevaluation to catch up.
func (c *AdjustmentCoordinator) Publish(ev BatchEvent) bool {
	select {
	case c.intake <- ev:
		return true
	default:
		c.logger.Warn("event queue full, dropping event",
			"batch_id", ev.BatchID.String(),
			"event_type", ev.Event.Type.String())
		return false
	}
}

// Run drains the intake queue until ctx is cancelled.
func (c *AdjustmentCoordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.intake:
			c.ReportEvent(ctx, ev.BatchID, ev.Event)
		}
	}
}

// ReportEvent feeds one discrete route event into the batch's window.
// Severe traffic incidents and preparation delays beyond
// ImmediateDelayThreshold trigger a reoptimization synchronously; anything
// milder waits for the periodic reevaluation. Events for batches that are
// not Active are dropped.
func (c *AdjustmentCoordinator) ReportEvent(ctx context.Context, batchID kernel.UUID, ev route.Event) {
	if !c.isActive(batchID) {
		c.logger.Debug("dropping event for inactive batch",
			"batch_id", batchID.String(),
			"event_type", ev.Type.String())
		return
	}

	c.mu.Lock()
	w := c.ensureWatchLocked(batchID)
	now := c.scheduler.Now()
	w.window.Append(ev, now)
	events := w.window.Snapshot(now)
	c.mu.Unlock()

	if requiresImmediateAction(ev) {
		c.triggerReoptimization(ctx, batchID, events)
	}
}

// UpdateConditions records the latest ambient conditions for a batch and
// schedules an adjustment after DebounceQuietPeriod of quiet. A burst of
// updates collapses into one recomputation using the last conditions seen.
func (c *AdjustmentCoordinator) UpdateConditions(batchID kernel.UUID, conditions services.RealTimeConditions) {
	if !c.isActive(batchID) {
		return
	}

	c.mu.Lock()
	w := c.ensureWatchLocked(batchID)
	w.pendingConditions = &conditions
	if w.cancelDebounce != nil {
		w.cancelDebounce()
	}
	w.cancelDebounce = c.scheduler.Schedule(DebounceQuietPeriod, func() {
		c.flushConditions(batchID)
	})
	c.mu.Unlock()
}

// Evaluate runs the periodic predicate for one batch: reoptimize when any
// windowed event reports traffic at heavy or worse, or a preparation delay
// beyond PeriodicDelayThreshold. Returns true when a reoptimization was
// triggered.
func (c *AdjustmentCoordinator) Evaluate(ctx context.Context, batchID kernel.UUID) bool {
	if !c.isActive(batchID) {
		return false
	}

	c.mu.Lock()
	w, ok := c.watches[batchID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	events := w.window.Snapshot(c.scheduler.Now())
	c.mu.Unlock()

	if !shouldReoptimize(events) {
		return false
	}

	c.triggerReoptimization(ctx, batchID, events)
	return true
}

// EvaluateActive runs Evaluate over every batch the registry reports as
// Active. Returns how many reoptimizations were triggered.
func (c *AdjustmentCoordinator) EvaluateActive(ctx context.Context) int {
	triggered := 0
	for _, id := range c.registry.ActiveIDs() {
		if c.Evaluate(ctx, id) {
			triggered++
		}
	}
	return triggered
}

// StopWatching cancels all pending work for a batch and forgets its event
// window. Called by the pause, complete and cancel handlers so no
// reoptimization can fire against a batch that left the Active state.
func (c *AdjustmentCoordinator) StopWatching(batchID kernel.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.watches[batchID]
	if !ok {
		return
	}
	if w.cancelDebounce != nil {
		w.cancelDebounce()
	}
	delete(c.watches, batchID)
}

func (c *AdjustmentCoordinator) isActive(batchID kernel.UUID) bool {
	return c.registry.IsActive(batchID)
}

func (c *AdjustmentCoordinator) ensureWatchLocked(batchID kernel.UUID) *batchWatch {
	w, ok := c.watches[batchID]
	if !ok {
		w = &batchWatch{window: newEventWindow()}
		c.watches[batchID] = w
	}
	return w
}

func (c *AdjustmentCoordinator) flushConditions(batchID kernel.UUID) {
	c.mu.Lock()
	w, ok := c.watches[batchID]
	if !ok {
		c.mu.Unlock()
		return
	}
	conditions := w.pendingConditions
	w.pendingConditions = nil
	w.cancelDebounce = nil
	c.mu.Unlock()

	if conditions == nil {
		return
	}

	if !c.acquire(batchID) {
		c.logger.Debug("recomputation already in flight, dropping adjustment",
			"batch_id", batchID.String())
		return
	}
	defer c.release(batchID)

	cmd, err := commands.NewAdjustBatchRouteCommand(batchID, *conditions)
	if err != nil {
		c.logger.Error("building adjustment command", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reoptimizeTimeout)
	defer cancel()

	if err := c.adjuster.Handle(ctx, cmd); err != nil {
		c.logger.Warn("route adjustment failed, keeping current route",
			"batch_id", batchID.String(),
			"error", describeFailure(err))
	}
}

func (c *AdjustmentCoordinator) triggerReoptimization(
	ctx context.Context, batchID kernel.UUID, events []route.Event,
) {
	if !c.acquire(batchID) {
		c.logger.Debug("recomputation already in flight, dropping trigger",
			"batch_id", batchID.String())
		return
	}
	defer c.release(batchID)

	cmd, err := commands.NewReoptimizeBatchCommand(batchID, events)
	if err != nil {
		c.logger.Error("building reoptimization command", "error", err)
		return
	}

	tctx, cancel := context.WithTimeout(ctx, reoptimizeTimeout)
	defer cancel()

	if err := c.reoptimizer.Handle(tctx, cmd); err != nil {
		c.logger.Warn("reoptimization failed, keeping current route",
			"batch_id", batchID.String(),
			"error", describeFailure(err))
	}
}

func (c *AdjustmentCoordinator) acquire(batchID kernel.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.watches[batchID]
	if !ok || w.inFlight {
		return false
	}
	w.inFlight = true
	return true
}

func (c *AdjustmentCoordinator) release(batchID kernel.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.watches[batchID]; ok {
		w.inFlight = false
	}
}

func describeFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrProviderTimeout
	}
	return err
}

func requiresImmediateAction(ev route.Event) bool {
	switch ev.Type {
	case route.TrafficIncident:
		return ev.Severity >= route.TrafficSevere
	case route.PreparationDelay:
		return ev.Delay > ImmediateDelayThreshold
	default:
		return false
	}
}

func shouldReoptimize(events []route.Event) bool {
	for _, ev := range events {
		switch ev.Type {
		case route.TrafficIncident:
			if ev.Severity >= route.TrafficHeavy {
				return true
			}
		case route.PreparationDelay:
			if ev.Delay > PeriodicDelayThreshold {
				return true
			}
		}
	}
	return false
}

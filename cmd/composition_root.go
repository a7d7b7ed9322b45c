package cmd

import (
	"log/slog"
	"os"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/prep"
	"dispatch/internal/core/application/realtime"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"

	"gorm.io/gorm"
)

// Routing defaults for the haversine cost model and the static preparation
// estimator. A routing service integration would replace these.
const (
	defaultAverageSpeedKmh = 28.0
	defaultTrafficFactor   = 1.35
	defaultPrepLeadTime    = 8 * time.Minute
	defaultPrepWindowSpan  = 12 * time.Minute
)

type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory

	logger          *slog.Logger
	registry        *batch.Registry
	optimizer       *services.RouteOptimizer
	prepEstimator   *prep.StaticPreparationEstimator
	driverLocations *geo.InMemoryDriverLocationProvider
	coordinator     *realtime.AdjustmentCoordinator
}

func NewCompositionRoot(_ Config, gormDB *gorm.DB) *CompositionRoot {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	distanceProvider, err := geo.NewHaversineDistanceProvider(defaultAverageSpeedKmh, defaultTrafficFactor)
	if err != nil {
		panic(err)
	}
	optimizer, err := services.NewRouteOptimizer(distanceProvider)
	if err != nil {
		panic(err)
	}
	prepEstimator, err := prep.NewStaticPreparationEstimator(
		defaultPrepLeadTime, defaultPrepWindowSpan, nil)
	if err != nil {
		panic(err)
	}

	root := &CompositionRoot{
		gormDB:          gormDB,
		uowFactory:      postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:          logger,
		registry:        batch.NewRegistry(),
		optimizer:       optimizer,
		prepEstimator:   prepEstimator,
		driverLocations: geo.NewInMemoryDriverLocationProvider(),
	}

	reoptimizeHandler := root.CreateReoptimizeBatchCommandHandler()
	adjustHandler := root.CreateAdjustBatchRouteCommandHandler()
	coordinator, err := realtime.NewAdjustmentCoordinator(
		&reoptimizeHandler,
		&adjustHandler,
		root.registry,
		realtime.NewWallClockScheduler(),
		logger,
	)
	if err != nil {
		panic(err)
	}
	root.coordinator = coordinator

	return root
}

func (c *CompositionRoot) Logger() *slog.Logger {
	return c.logger
}

func (c *CompositionRoot) Coordinator() *realtime.AdjustmentCoordinator {
	return c.coordinator
}

func (c *CompositionRoot) batchUoWFactory() commands.BatchUoWFactory {
	return FuncBatchUoWFactory(func() commands.BatchUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) crossUoWFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateBatchCommandHandler() commands.CreateBatchCommandHandler {
	return commands.NewCreateBatchCommandHandler(
		c.crossUoWFactory(), c.optimizer, c.prepEstimator, c.driverLocations, c.registry)
}

func (c *CompositionRoot) CreateStartBatchCommandHandler() commands.StartBatchCommandHandler {
	return commands.NewStartBatchCommandHandler(c.batchUoWFactory(), c.registry)
}

func (c *CompositionRoot) CreatePauseBatchCommandHandler() commands.PauseBatchCommandHandler {
	return commands.NewPauseBatchCommandHandler(c.batchUoWFactory(), c.registry, c.coordinator)
}

func (c *CompositionRoot) CreateResumeBatchCommandHandler() commands.ResumeBatchCommandHandler {
	return commands.NewResumeBatchCommandHandler(c.batchUoWFactory(), c.registry)
}

func (c *CompositionRoot) CreateCompleteBatchCommandHandler() commands.CompleteBatchCommandHandler {
	return commands.NewCompleteBatchCommandHandler(c.batchUoWFactory(), c.registry, c.coordinator, c.logger)
}

func (c *CompositionRoot) CreateCancelBatchCommandHandler() commands.CancelBatchCommandHandler {
	return commands.NewCancelBatchCommandHandler(c.batchUoWFactory(), c.registry, c.coordinator)
}

func (c *CompositionRoot) CreateCompleteWaypointCommandHandler() commands.CompleteWaypointCommandHandler {
	return commands.NewCompleteWaypointCommandHandler(c.batchUoWFactory(), c.registry)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(c.crossUoWFactory(), c.registry)
}

func (c *CompositionRoot) CreateReoptimizeBatchCommandHandler() commands.ReoptimizeBatchCommandHandler {
	return commands.NewReoptimizeBatchCommandHandler(
		c.batchUoWFactory(), c.optimizer, c.registry, c.logger)
}

func (c *CompositionRoot) CreateAdjustBatchRouteCommandHandler() commands.AdjustBatchRouteCommandHandler {
	return commands.NewAdjustBatchRouteCommandHandler(
		c.batchUoWFactory(), c.optimizer, c.driverLocations, c.registry, c.logger)
}

func (c *CompositionRoot) CreateGetActiveBatchesQueryHandler() queries.GetActiveBatchesQueryHandler {
	return queries.NewGetActiveBatchesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetBatchRouteQueryHandler() queries.GetBatchRouteQueryHandler {
	return queries.NewGetBatchRouteQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCreateBatchCommandHandler(),
		c.CreateStartBatchCommandHandler(),
		c.CreatePauseBatchCommandHandler(),
		c.CreateResumeBatchCommandHandler(),
		c.CreateCompleteBatchCommandHandler(),
		c.CreateCancelBatchCommandHandler(),
		c.CreateCompleteWaypointCommandHandler(),
		c.CreateUpdateOrderStatusCommandHandler(),
		c.CreateGetActiveBatchesQueryHandler(),
		c.CreateGetBatchRouteQueryHandler(),
		c.coordinator,
		c.driverLocations,
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.coordinator, c.batchUoWFactory(), c.registry, c.logger)
}

type FuncBatchUoWFactory func() commands.BatchUoW

func (f FuncBatchUoWFactory) Create() commands.BatchUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

package commands_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/batch"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockBatchRepository struct{ mock.Mock }

func (m *MockBatchRepository) Add(ctx context.Context, b *batch.DeliveryBatch) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBatchRepository) Update(ctx context.Context, b *batch.DeliveryBatch) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBatchRepository) Get(ctx context.Context, id kernel.UUID) (*batch.DeliveryBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.DeliveryBatch), args.Error(1)
}

func (m *MockBatchRepository) GetAllActive(ctx context.Context) ([]*batch.DeliveryBatch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*batch.DeliveryBatch), args.Error(1)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllByIDs(ctx context.Context, ids []kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockBatchUoW struct{ mock.Mock }

func (m *MockBatchUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBatchUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBatchUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBatchUoW) BatchRepository() ports.BatchRepository {
	args := m.Called()
	return args.Get(0).(ports.BatchRepository)
}

type MockBatchUoWFactory struct{ mock.Mock }

func (m *MockBatchUoWFactory) Create() commands.BatchUoW {
	args := m.Called()
	return args.Get(0).(commands.BatchUoW)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) BatchRepository() ports.BatchRepository {
	args := m.Called()
	return args.Get(0).(ports.BatchRepository)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockWatcher struct{ mock.Mock }

func (m *MockWatcher) StopWatching(batchID kernel.UUID) {
	m.Called(batchID)
}

// straightLineProvider derives leg costs from great-circle distance at a
// constant speed, matching the deterministic provider the optimizer tests use.
type straightLineProvider struct {
	speedKmh float64
}

func (p straightLineProvider) LegCost(_ context.Context, from, to kernel.Location) (ports.LegCost, error) {
	km, err := from.DistanceKmTo(to)
	if err != nil {
		return ports.LegCost{}, err
	}
	duration := time.Duration(km / p.speedKmh * float64(time.Hour))
	return ports.LegCost{DistanceKm: km, Duration: duration, DurationInTraffic: duration}, nil
}

type stubPrepEstimator struct {
	windows map[kernel.UUID]ports.PreparationWindow
}

func (s stubPrepEstimator) Predict(context.Context, []*order.Order) (map[kernel.UUID]ports.PreparationWindow, error) {
	return s.windows, nil
}

type stubDriverLocations struct {
	location kernel.Location
}

func (s stubDriverLocations) FetchDriverLocation(context.Context, kernel.UUID) (kernel.Location, error) {
	return s.location, nil
}

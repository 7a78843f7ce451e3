package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/realtime"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
	"github.com/stretchr/testify/mock"
)

// stubTxRunner runs the transaction function directly with a nil tx. The
// repositories are mocked, so no real transaction is needed.
type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// captureNotifier records published events for assertions.
type captureNotifier struct {
	events []realtime.Event
}

func (n *captureNotifier) Publish(_ context.Context, event realtime.Event) {
	n.events = append(n.events, event)
}

// MockLotRepository is a mock implementation of LotRepository for testing
type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) Insert(ctx context.Context, q repository.Querier, lot *models.ParkingLot) error {
	args := m.Called(ctx, q, lot)
	return args.Error(0)
}

func (m *MockLotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingLot), args.Error(1)
}

func (m *MockLotRepository) List(ctx context.Context) ([]models.ParkingLot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParkingLot), args.Error(1)
}

func (m *MockLotRepository) RefreshAvailability(ctx context.Context, q repository.Querier, lotID uuid.UUID) (int, error) {
	args := m.Called(ctx, q, lotID)
	return args.Int(0), args.Error(1)
}

// MockSpaceRepository is a mock implementation of SpaceRepository for testing
type MockSpaceRepository struct {
	mock.Mock
}

func (m *MockSpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingSpace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceRepository) GetForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*models.ParkingSpace, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceRepository) ListByLot(ctx context.Context, lotID uuid.UUID, filter repository.SpaceFilter) ([]models.ParkingSpace, error) {
	args := m.Called(ctx, lotID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceRepository) CountAvailable(ctx context.Context, lotID uuid.UUID) (int, error) {
	args := m.Called(ctx, lotID)
	return args.Int(0), args.Error(1)
}

func (m *MockSpaceRepository) BulkInsert(ctx context.Context, q repository.Querier, spaces []models.ParkingSpace) error {
	args := m.Called(ctx, q, spaces)
	return args.Error(0)
}

func (m *MockSpaceRepository) LockOccupiedByLot(ctx context.Context, q repository.Querier, lotID uuid.UUID) ([]models.ParkingSpace, error) {
	args := m.Called(ctx, q, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceRepository) SetOccupancy(ctx context.Context, q repository.Querier, id uuid.UUID, occupied bool, vehicleType *models.VehicleType, licensePlate *string) error {
	args := m.Called(ctx, q, id, occupied, vehicleType, licensePlate)
	return args.Error(0)
}

func (m *MockSpaceRepository) ClearOccupancyByLot(ctx context.Context, q repository.Querier, lotID uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, lotID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSpaceRepository) SetActive(ctx context.Context, q repository.Querier, id uuid.UUID, active bool) (*models.ParkingSpace, error) {
	args := m.Called(ctx, q, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceRepository) SoftDelete(ctx context.Context, q repository.Querier, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of TicketRepository for testing
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) FindActiveBySpace(ctx context.Context, q repository.Querier, spaceID uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, q, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Insert(ctx context.Context, q repository.Querier, ticket *models.Ticket) error {
	args := m.Called(ctx, q, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) Close(ctx context.Context, q repository.Querier, id uuid.UUID, exitTime time.Time, durationMinutes int, amount float64, closedBy string) (*models.Ticket, error) {
	args := m.Called(ctx, q, id, exitTime, durationMinutes, amount, closedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketRepository) CloseAllActiveByLot(ctx context.Context, q repository.Querier, lotID uuid.UUID, exitTime time.Time, closedBy string) (int64, error) {
	args := m.Called(ctx, q, lotID, exitTime, closedBy)
	return args.Get(0).(int64), args.Error(1)
}

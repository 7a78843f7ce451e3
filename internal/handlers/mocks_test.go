package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/odavaloshdz/estacionador/api/internal/logger"
	"github.com/odavaloshdz/estacionador/api/internal/middleware"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
	"github.com/odavaloshdz/estacionador/api/internal/services"
	"github.com/stretchr/testify/mock"
)

func init() {
	// Set Gin to test mode to reduce noise in tests
	gin.SetMode(gin.TestMode)
}

// setupTestRouter creates a bare router with the request-scoped middleware the
// handlers depend on.
func setupTestRouter() *gin.Engine {
	log := logger.New("test")
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	return router
}

// MockLotService is a mock implementation of services.LotService for testing
type MockLotService struct {
	mock.Mock
}

func (m *MockLotService) CreateLot(ctx context.Context, req services.CreateLotRequest) (*models.ParkingLot, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingLot), args.Error(1)
}

func (m *MockLotService) GetLot(ctx context.Context, id uuid.UUID) (*models.ParkingLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingLot), args.Error(1)
}

func (m *MockLotService) ListLots(ctx context.Context) ([]models.ParkingLot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParkingLot), args.Error(1)
}

func (m *MockLotService) CountAvailable(ctx context.Context, lotID uuid.UUID) (int, error) {
	args := m.Called(ctx, lotID)
	return args.Int(0), args.Error(1)
}

// MockSpaceService is a mock implementation of services.SpaceService for testing
type MockSpaceService struct {
	mock.Mock
}

func (m *MockSpaceService) GetSpace(ctx context.Context, id uuid.UUID) (*models.ParkingSpace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceService) ListSpaces(ctx context.Context, lotID uuid.UUID, filter repository.SpaceFilter) ([]models.ParkingSpace, error) {
	args := m.Called(ctx, lotID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.ParkingSpace, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSpace), args.Error(1)
}

func (m *MockSpaceService) DeleteSpace(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOccupancyService is a mock implementation of services.OccupancyService for testing
type MockOccupancyService struct {
	mock.Mock
}

func (m *MockOccupancyService) Assign(ctx context.Context, spaceID uuid.UUID, req services.AssignRequest, actorID string) (*models.Ticket, error) {
	args := m.Called(ctx, spaceID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockOccupancyService) Release(ctx context.Context, spaceID uuid.UUID, req services.ReleaseRequest, actorID string) (*models.Ticket, error) {
	args := m.Called(ctx, spaceID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockOccupancyService) EmptyLot(ctx context.Context, lotID uuid.UUID, actorID string) (int, error) {
	args := m.Called(ctx, lotID, actorID)
	return args.Int(0), args.Error(1)
}

// MockTicketService is a mock implementation of services.TicketService for testing
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

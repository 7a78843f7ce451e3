package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
	"github.com/odavaloshdz/estacionador/api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTicketRouter(tickets *MockTicketService, lots *MockLotService) *gin.Engine {
	router := setupTestRouter()
	handler := NewTicketHandler(tickets, lots)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tickets", handler.List)
		v1.GET("/tickets/:id", handler.Get)
		v1.GET("/tickets/:id/receipt", handler.Receipt)
	}
	return router
}

func TestListTickets_Handler_Filters(t *testing.T) {
	// Arrange
	tickets := new(MockTicketService)
	router := setupTicketRouter(tickets, new(MockLotService))

	lotID := uuid.New()
	var captured repository.TicketFilter
	tickets.On("ListTickets", mock.Anything, mock.AnythingOfType("repository.TicketFilter")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(repository.TicketFilter)
		}).
		Return([]models.Ticket{}, nil)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/tickets?lot_id="+lotID.String()+"&status=active&plate=ABC-123", nil)
	require.NoError(t, err)

	// Act
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured.LotID)
	assert.Equal(t, lotID, *captured.LotID)
	require.NotNil(t, captured.Status)
	assert.Equal(t, models.TicketStatusActive, *captured.Status)
	require.NotNil(t, captured.LicensePlate)
	assert.Equal(t, "ABC-123", *captured.LicensePlate)
}

func TestListTickets_Handler_InvalidStatus(t *testing.T) {
	// Arrange
	tickets := new(MockTicketService)
	router := setupTicketRouter(tickets, new(MockLotService))

	req, err := http.NewRequest(http.MethodGet, "/api/v1/tickets?status=parked", nil)
	require.NoError(t, err)

	// Act
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	tickets.AssertNotCalled(t, "ListTickets")
}

func TestGetTicket_Handler_NotFound(t *testing.T) {
	// Arrange
	tickets := new(MockTicketService)
	router := setupTicketRouter(tickets, new(MockLotService))

	ticketID := uuid.New()
	tickets.On("GetTicket", mock.Anything, ticketID).Return(nil, services.ErrTicketNotFound)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/tickets/"+ticketID.String(), nil)
	require.NoError(t, err)

	// Act
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTicket_Handler_Success(t *testing.T) {
	// Arrange
	tickets := new(MockTicketService)
	router := setupTicketRouter(tickets, new(MockLotService))

	ticket := &models.Ticket{
		ID:           uuid.New(),
		TicketNumber: "T-20260829-0042",
		LicensePlate: "ABC-123",
		Status:       models.TicketStatusActive,
	}
	tickets.On("GetTicket", mock.Anything, ticket.ID).Return(ticket, nil)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/tickets/"+ticket.ID.String(), nil)
	require.NoError(t, err)

	// Act
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var response TicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, ticket.TicketNumber, response.Ticket.TicketNumber)
}

func TestReceipt_Handler(t *testing.T) {
	// Arrange
	tickets := new(MockTicketService)
	lots := new(MockLotService)
	router := setupTicketRouter(tickets, lots)

	lotID := uuid.New()
	ticket := &models.Ticket{
		ID:           uuid.New(),
		TicketNumber: "T-20260829-0042",
		LotID:        lotID,
		LicensePlate: "ABC-123",
		VehicleType:  models.VehicleTypeAuto,
		EntryTime:    time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		Status:       models.TicketStatusActive,
	}
	tickets.On("GetTicket", mock.Anything, ticket.ID).Return(ticket, nil)
	lots.On("GetLot", mock.Anything, lotID).Return(&models.ParkingLot{ID: lotID, Name: "Estacionamiento Centro"}, nil)

	req, err := http.NewRequest(http.MethodGet, "/api/v1/tickets/"+ticket.ID.String()+"/receipt", nil)
	require.NoError(t, err)

	// Act
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	assert.Contains(t, body, "Estacionamiento Centro")
	assert.Contains(t, body, "ENTRY TICKET")
	assert.Contains(t, body, "T-20260829-0042")
	assert.Contains(t, body, "ABC-123")
}

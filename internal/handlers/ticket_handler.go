package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/odavaloshdz/estacionador/api/internal/errors"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/receipt"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
	"github.com/odavaloshdz/estacionador/api/internal/services"
)

// TicketHandler handles ticket ledger HTTP requests.
type TicketHandler struct {
	tickets services.TicketService
	lots    services.LotService
}

// NewTicketHandler creates a new TicketHandler instance.
func NewTicketHandler(tickets services.TicketService, lots services.LotService) *TicketHandler {
	return &TicketHandler{
		tickets: tickets,
		lots:    lots,
	}
}

// ListTicketsRequest represents the query parameters of the ticket listing.
type ListTicketsRequest struct {
	LotID  string `form:"lot_id" binding:"omitempty,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=active closed cancelled"`
	Plate  string `form:"plate" binding:"omitempty,max=20"`
}

// TicketListResponse wraps a list of tickets.
type TicketListResponse struct {
	Tickets []models.Ticket `json:"tickets"`
	Count   int             `json:"count"`
}

// List handles GET /api/v1/tickets.
func (h *TicketHandler) List(c *gin.Context) {
	var req ListTicketsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	filter := repository.TicketFilter{}
	if req.LotID != "" {
		lotID, err := uuid.Parse(req.LotID)
		if err != nil {
			apierrors.BadRequest(c, "Invalid lot_id parameter: must be a UUID", nil)
			return
		}
		filter.LotID = &lotID
	}
	if req.Status != "" {
		status := models.TicketStatus(req.Status)
		filter.Status = &status
	}
	if req.Plate != "" {
		filter.LicensePlate = &req.Plate
	}

	tickets, err := h.tickets.ListTickets(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to query tickets", err)
		return
	}

	c.JSON(http.StatusOK, TicketListResponse{
		Tickets: tickets,
		Count:   len(tickets),
	})
}

// Get handles GET /api/v1/tickets/:id.
func (h *TicketHandler) Get(c *gin.Context) {
	ticketID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.tickets.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			apierrors.NotFound(c, "Ticket not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to query ticket", err)
		return
	}

	c.JSON(http.StatusOK, TicketResponse{Ticket: ticket})
}

// Receipt handles GET /api/v1/tickets/:id/receipt.
// It renders a plain-text entry/exit slip for the ticket.
func (h *TicketHandler) Receipt(c *gin.Context) {
	ticketID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.tickets.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			apierrors.NotFound(c, "Ticket not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to query ticket", err)
		return
	}

	lotName := "Parking"
	if lot, err := h.lots.GetLot(c.Request.Context(), ticket.LotID); err == nil {
		lotName = lot.Name
	}

	c.String(http.StatusOK, receipt.Render(ticket, lotName))
}

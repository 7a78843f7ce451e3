package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/odavaloshdz/estacionador/api/internal/errors"
	"github.com/odavaloshdz/estacionador/api/internal/middleware"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
	"github.com/odavaloshdz/estacionador/api/internal/services"
)

// SpaceHandler handles space-related HTTP requests, including the occupancy
// transitions (assign/release).
type SpaceHandler struct {
	spaces    services.SpaceService
	occupancy services.OccupancyService
}

// NewSpaceHandler creates a new SpaceHandler instance.
func NewSpaceHandler(spaces services.SpaceService, occupancy services.OccupancyService) *SpaceHandler {
	return &SpaceHandler{
		spaces:    spaces,
		occupancy: occupancy,
	}
}

// ListSpacesRequest represents the query parameters of the space listing.
// Status narrows to occupied or available spaces; type and active filter on
// the space attributes.
type ListSpacesRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=occupied available"`
	Type   string `form:"type" binding:"omitempty,oneof=regular handicap reserved non_parking"`
	Active *bool  `form:"active"`
}

// UpdateSpaceRequest represents the body of PATCH /api/v1/spaces/:id.
type UpdateSpaceRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AssignRequest represents the body of POST /api/v1/spaces/:id/assign.
type AssignRequest struct {
	LicensePlate string  `json:"license_plate" binding:"required,max=20"`
	VehicleType  string  `json:"vehicle_type" binding:"required,oneof=auto motorcycle truck bicycle"`
	VehicleColor *string `json:"vehicle_color" binding:"omitempty,max=30"`
	VehicleModel *string `json:"vehicle_model" binding:"omitempty,max=50"`
	Notes        *string `json:"notes" binding:"omitempty,max=500"`
}

// ReleaseRequest represents the body of POST /api/v1/spaces/:id/release.
// Amount overrides the computed fee when present (e.g. a comped stay).
type ReleaseRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gte=0"`
}

// SpaceResponse wraps a single space.
type SpaceResponse struct {
	Space *models.ParkingSpace `json:"space"`
}

// SpaceListResponse wraps a list of spaces.
type SpaceListResponse struct {
	Spaces []models.ParkingSpace `json:"spaces"`
	Count  int                   `json:"count"`
}

// TicketResponse wraps the ticket produced by an occupancy transition.
type TicketResponse struct {
	Ticket *models.Ticket `json:"ticket"`
}

// ListByLot handles GET /api/v1/lots/:id/spaces.
func (h *SpaceHandler) ListByLot(c *gin.Context) {
	lotID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ListSpacesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	filter := repository.SpaceFilter{Active: req.Active}
	switch req.Status {
	case "occupied":
		occupied := true
		filter.Occupied = &occupied
	case "available":
		occupied := false
		filter.Occupied = &occupied
	}
	if req.Type != "" {
		spaceType := models.SpaceType(req.Type)
		filter.SpaceType = &spaceType
	}

	spaces, err := h.spaces.ListSpaces(c.Request.Context(), lotID, filter)
	if err != nil {
		if errors.Is(err, services.ErrLotNotFound) {
			apierrors.NotFound(c, "Lot not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to query spaces", err)
		return
	}

	c.JSON(http.StatusOK, SpaceListResponse{
		Spaces: spaces,
		Count:  len(spaces),
	})
}

// Get handles GET /api/v1/spaces/:id.
func (h *SpaceHandler) Get(c *gin.Context) {
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	space, err := h.spaces.GetSpace(c.Request.Context(), spaceID)
	if err != nil {
		if errors.Is(err, services.ErrSpaceNotFound) {
			apierrors.NotFound(c, "Space not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to query space", err)
		return
	}

	c.JSON(http.StatusOK, SpaceResponse{Space: space})
}

// Update handles PATCH /api/v1/spaces/:id.
func (h *SpaceHandler) Update(c *gin.Context) {
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	space, err := h.spaces.SetActive(c.Request.Context(), spaceID, *req.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSpaceNotFound):
			apierrors.NotFound(c, "Space not found")
		case errors.Is(err, services.ErrSpaceOccupied):
			apierrors.Conflict(c, "Space cannot be deactivated while it has an active ticket")
		default:
			apierrors.InternalServerError(c, "Failed to update space", err)
		}
		return
	}

	c.JSON(http.StatusOK, SpaceResponse{Space: space})
}

// Delete handles DELETE /api/v1/spaces/:id.
func (h *SpaceHandler) Delete(c *gin.Context) {
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.spaces.DeleteSpace(c.Request.Context(), spaceID); err != nil {
		switch {
		case errors.Is(err, services.ErrSpaceNotFound):
			apierrors.NotFound(c, "Space not found")
		case errors.Is(err, services.ErrSpaceOccupied):
			apierrors.Conflict(c, "Space cannot be deleted while it has an active ticket")
		default:
			apierrors.InternalServerError(c, "Failed to delete space", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// Assign handles POST /api/v1/spaces/:id/assign.
// It opens a ticket for the vehicle and occupies the space atomically.
func (h *SpaceHandler) Assign(c *gin.Context) {
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	ticket, err := h.occupancy.Assign(c.Request.Context(), spaceID, services.AssignRequest{
		LicensePlate: req.LicensePlate,
		VehicleType:  models.VehicleType(req.VehicleType),
		VehicleColor: req.VehicleColor,
		VehicleModel: req.VehicleModel,
		Notes:        req.Notes,
	}, middleware.GetActorID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingLicensePlate),
			errors.Is(err, services.ErrInvalidVehicleType):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrSpaceNotFound):
			apierrors.NotFound(c, "Space not found")
		case errors.Is(err, services.ErrSpaceInactive):
			apierrors.Conflict(c, "Space is inactive and cannot be assigned")
		case errors.Is(err, services.ErrSpaceNotAvailable):
			apierrors.Conflict(c, "Space is not available")
		default:
			apierrors.InternalServerError(c, "Failed to assign space", err)
		}
		return
	}

	c.JSON(http.StatusCreated, TicketResponse{Ticket: ticket})
}

// Release handles POST /api/v1/spaces/:id/release.
// It closes the active ticket with the computed fee and frees the space.
func (h *SpaceHandler) Release(c *gin.Context) {
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	// The body is optional; an empty body means "compute the fee".
	var req ReleaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			if validationErrors, ok := err.(validator.ValidationErrors); ok {
				apierrors.ValidationError(c, validationErrors)
				return
			}
			apierrors.BadRequest(c, "Invalid request body", nil)
			return
		}
	}

	ticket, err := h.occupancy.Release(c.Request.Context(), spaceID, services.ReleaseRequest{
		Amount: req.Amount,
	}, middleware.GetActorID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNegativeAmountOverride):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrSpaceNotFound):
			apierrors.NotFound(c, "Space not found")
		case errors.Is(err, services.ErrNoActiveTicket):
			apierrors.Conflict(c, "Space has no active ticket")
		case errors.Is(err, services.ErrTicketAlreadyClosed):
			apierrors.Conflict(c, "Ticket is already closed")
		default:
			apierrors.InternalServerError(c, "Failed to release space", err)
		}
		return
	}

	c.JSON(http.StatusOK, TicketResponse{Ticket: ticket})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/odavaloshdz/estacionador/api/internal/errors"
	"github.com/odavaloshdz/estacionador/api/internal/middleware"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/services"
)

// LotHandler handles lot-related HTTP requests.
type LotHandler struct {
	lots      services.LotService
	occupancy services.OccupancyService
}

// NewLotHandler creates a new LotHandler instance.
func NewLotHandler(lots services.LotService, occupancy services.OccupancyService) *LotHandler {
	return &LotHandler{
		lots:      lots,
		occupancy: occupancy,
	}
}

// ProvisionSpaceRequest describes one space in a lot creation request.
type ProvisionSpaceRequest struct {
	SpaceNumber string `json:"space_number" binding:"required,max=20"`
	SpaceType   string `json:"space_type" binding:"omitempty,oneof=regular handicap reserved non_parking"`
	Row         *int   `json:"row"`
	Column      *int   `json:"column"`
	Floor       *int   `json:"floor"`
}

// CreateLotRequest represents the body of POST /api/v1/lots.
type CreateLotRequest struct {
	Name    string                  `json:"name" binding:"required,max=100"`
	Address *string                 `json:"address" binding:"omitempty,max=255"`
	Spaces  []ProvisionSpaceRequest `json:"spaces" binding:"required,min=1,dive"`
}

// LotResponse wraps a single lot.
type LotResponse struct {
	Lot *models.ParkingLot `json:"lot"`
}

// LotListResponse wraps a list of lots.
type LotListResponse struct {
	Lots  []models.ParkingLot `json:"lots"`
	Count int                 `json:"count"`
}

// AvailabilityResponse reports the derived free-space count of a lot.
type AvailabilityResponse struct {
	LotID           uuid.UUID `json:"lotId"`
	AvailableSpaces int       `json:"availableSpaces"`
}

// EmptyLotResponse reports the outcome of an administrative lot reset.
type EmptyLotResponse struct {
	LotID         uuid.UUID `json:"lotId"`
	ClosedTickets int       `json:"closedTickets"`
}

// Create handles POST /api/v1/lots.
// It creates a lot and bulk-provisions its spaces.
func (h *LotHandler) Create(c *gin.Context) {
	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	spaces := make([]services.ProvisionSpace, 0, len(req.Spaces))
	for _, space := range req.Spaces {
		spaces = append(spaces, services.ProvisionSpace{
			SpaceNumber: space.SpaceNumber,
			SpaceType:   models.SpaceType(space.SpaceType),
			Row:         space.Row,
			Column:      space.Column,
			Floor:       space.Floor,
		})
	}

	lot, err := h.lots.CreateLot(c.Request.Context(), services.CreateLotRequest{
		Name:    req.Name,
		Address: req.Address,
		Spaces:  spaces,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingLotName),
			errors.Is(err, services.ErrMissingSpaceNumber),
			errors.Is(err, services.ErrInvalidSpaceType):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, services.ErrDuplicateSpaceNumber):
			apierrors.Conflict(c, "Space numbers must be unique within the lot")
		default:
			apierrors.InternalServerError(c, "Failed to create lot", err)
		}
		return
	}

	c.JSON(http.StatusCreated, LotResponse{Lot: lot})
}

// List handles GET /api/v1/lots.
func (h *LotHandler) List(c *gin.Context) {
	lots, err := h.lots.ListLots(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to query lots", err)
		return
	}

	c.JSON(http.StatusOK, LotListResponse{
		Lots:  lots,
		Count: len(lots),
	})
}

// Get handles GET /api/v1/lots/:id.
func (h *LotHandler) Get(c *gin.Context) {
	lotID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	lot, err := h.lots.GetLot(c.Request.Context(), lotID)
	if err != nil {
		if errors.Is(err, services.ErrLotNotFound) {
			apierrors.NotFound(c, "Lot not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to query lot", err)
		return
	}

	c.JSON(http.StatusOK, LotResponse{Lot: lot})
}

// Availability handles GET /api/v1/lots/:id/availability.
// The count is derived from current space state, not the cached counter.
func (h *LotHandler) Availability(c *gin.Context) {
	lotID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	count, err := h.lots.CountAvailable(c.Request.Context(), lotID)
	if err != nil {
		if errors.Is(err, services.ErrLotNotFound) {
			apierrors.NotFound(c, "Lot not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to count available spaces", err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		LotID:           lotID,
		AvailableSpaces: count,
	})
}

// Empty handles POST /api/v1/lots/:id/empty.
// It closes every active ticket in the lot with no fee and frees every
// space. Calling it on an already-empty lot is a no-op.
func (h *LotHandler) Empty(c *gin.Context) {
	lotID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	closed, err := h.occupancy.EmptyLot(c.Request.Context(), lotID, middleware.GetActorID(c))
	if err != nil {
		if errors.Is(err, services.ErrLotNotFound) {
			apierrors.NotFound(c, "Lot not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to empty lot", err)
		return
	}

	c.JSON(http.StatusOK, EmptyLotResponse{
		LotID:         lotID,
		ClosedTickets: closed,
	})
}

// parseUUIDParam parses a uuid path parameter, writing a 400 response and
// returning ok=false when it is malformed.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name+" parameter: must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

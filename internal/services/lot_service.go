package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/odavaloshdz/estacionador/api/internal/logger"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
)

// Validation errors for lot setup.
var (
	ErrMissingLotName     = errors.New("lot name is required")
	ErrMissingSpaceNumber = errors.New("space number is required")
	ErrInvalidSpaceType   = errors.New("invalid space type")
)

// ProvisionSpace describes one space to create at lot setup.
type ProvisionSpace struct {
	SpaceNumber string
	SpaceType   models.SpaceType
	Row         *int
	Column      *int
	Floor       *int
}

// CreateLotRequest carries the lot details and its bulk-provisioned spaces.
type CreateLotRequest struct {
	Name    string
	Address *string
	Spaces  []ProvisionSpace
}

// LotService defines lot setup and dashboard query operations.
type LotService interface {
	// CreateLot creates the lot and bulk-provisions its spaces in one
	// transaction. Fails with ErrDuplicateSpaceNumber when two spaces share
	// a number.
	CreateLot(ctx context.Context, req CreateLotRequest) (*models.ParkingLot, error)

	// GetLot returns the lot. Fails with ErrLotNotFound.
	GetLot(ctx context.Context, id uuid.UUID) (*models.ParkingLot, error)

	// ListLots returns all lots.
	ListLots(ctx context.Context) ([]models.ParkingLot, error)

	// CountAvailable derives the lot's current number of assignable free
	// spaces. Fails with ErrLotNotFound.
	CountAvailable(ctx context.Context, lotID uuid.UUID) (int, error)
}

// lotService is the concrete implementation of LotService.
type lotService struct {
	tx     TxRunner
	lots   repository.LotRepository
	spaces repository.SpaceRepository
	log    *logger.Logger
}

// NewLotService creates a new instance of LotService.
func NewLotService(tx TxRunner, lots repository.LotRepository, spaces repository.SpaceRepository, log *logger.Logger) LotService {
	return &lotService{
		tx:     tx,
		lots:   lots,
		spaces: spaces,
		log:    log,
	}
}

// CreateLot validates the request, then creates the lot and its spaces.
func (s *lotService) CreateLot(ctx context.Context, req CreateLotRequest) (*models.ParkingLot, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrMissingLotName
	}

	lot := &models.ParkingLot{
		ID:          uuid.New(),
		Name:        name,
		Address:     req.Address,
		TotalSpaces: len(req.Spaces),
	}

	spaces := make([]models.ParkingSpace, 0, len(req.Spaces))
	for _, provision := range req.Spaces {
		spaceNumber := strings.TrimSpace(provision.SpaceNumber)
		if spaceNumber == "" {
			return nil, ErrMissingSpaceNumber
		}
		spaceType := provision.SpaceType
		if spaceType == "" {
			spaceType = models.SpaceTypeRegular
		}
		if !spaceType.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpaceType, provision.SpaceType)
		}

		spaces = append(spaces, models.ParkingSpace{
			ID:          uuid.New(),
			LotID:       lot.ID,
			SpaceNumber: spaceNumber,
			SpaceType:   spaceType,
			IsActive:    true,
			Row:         provision.Row,
			Column:      provision.Column,
			Floor:       provision.Floor,
		})
	}

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.lots.Insert(ctx, tx, lot); err != nil {
			return err
		}
		if err := s.spaces.BulkInsert(ctx, tx, spaces); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateSpaceNumber
			}
			return err
		}

		available, err := s.lots.RefreshAvailability(ctx, tx, lot.ID)
		if err != nil {
			return err
		}
		lot.AvailableSpaces = available
		return nil
	})
	if err != nil {
		s.log.Error("Failed to create lot", err, map[string]interface{}{
			"name":   name,
			"spaces": len(spaces),
		})
		return nil, err
	}

	s.log.Info("Lot created", map[string]interface{}{
		"lot_id": lot.ID,
		"name":   lot.Name,
		"spaces": len(spaces),
	})

	return lot, nil
}

// GetLot returns the lot, transforming the repository's nil result into a
// domain error.
func (s *lotService) GetLot(ctx context.Context, id uuid.UUID) (*models.ParkingLot, error) {
	lot, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query lot: %w", err)
	}
	if lot == nil {
		return nil, ErrLotNotFound
	}
	return lot, nil
}

// ListLots returns all lots.
func (s *lotService) ListLots(ctx context.Context) ([]models.ParkingLot, error) {
	lots, err := s.lots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	return lots, nil
}

// CountAvailable derives the assignable-space count for dashboards. It
// recounts from the spaces table instead of trusting the denormalized lot
// counter.
func (s *lotService) CountAvailable(ctx context.Context, lotID uuid.UUID) (int, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return 0, fmt.Errorf("failed to query lot: %w", err)
	}
	if lot == nil {
		return 0, ErrLotNotFound
	}

	count, err := s.spaces.CountAvailable(ctx, lotID)
	if err != nil {
		return 0, fmt.Errorf("failed to count available spaces: %w", err)
	}
	return count, nil
}

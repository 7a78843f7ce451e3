package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/odavaloshdz/estacionador/api/internal/logger"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
)

// SpaceService defines the query and administration surface of the space
// registry. Occupancy transitions live in OccupancyService; this service
// never flips the occupancy flag.
type SpaceService interface {
	// GetSpace returns the space. Fails with ErrSpaceNotFound.
	GetSpace(ctx context.Context, id uuid.UUID) (*models.ParkingSpace, error)

	// ListSpaces returns the lot's spaces matching the filter.
	// Fails with ErrLotNotFound when the lot does not exist.
	ListSpaces(ctx context.Context, lotID uuid.UUID, filter repository.SpaceFilter) ([]models.ParkingSpace, error)

	// SetActive toggles whether the space participates in assignment and
	// refreshes the lot counter. Fails with ErrSpaceNotFound, or
	// ErrSpaceOccupied when deactivating a space that holds a vehicle.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.ParkingSpace, error)

	// DeleteSpace soft-deletes a decommissioned space and refreshes the lot
	// counter. Fails with ErrSpaceNotFound, or ErrSpaceOccupied while the
	// space has an active ticket.
	DeleteSpace(ctx context.Context, id uuid.UUID) error
}

// spaceService is the concrete implementation of SpaceService.
type spaceService struct {
	tx     TxRunner
	lots   repository.LotRepository
	spaces repository.SpaceRepository
	log    *logger.Logger
}

// NewSpaceService creates a new instance of SpaceService.
func NewSpaceService(tx TxRunner, lots repository.LotRepository, spaces repository.SpaceRepository, log *logger.Logger) SpaceService {
	return &spaceService{
		tx:     tx,
		lots:   lots,
		spaces: spaces,
		log:    log,
	}
}

// GetSpace returns the space, transforming the repository's nil result into
// a domain error.
func (s *spaceService) GetSpace(ctx context.Context, id uuid.UUID) (*models.ParkingSpace, error) {
	space, err := s.spaces.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query space: %w", err)
	}
	if space == nil {
		return nil, ErrSpaceNotFound
	}
	return space, nil
}

// ListSpaces returns the lot's spaces matching the filter.
func (s *spaceService) ListSpaces(ctx context.Context, lotID uuid.UUID, filter repository.SpaceFilter) ([]models.ParkingSpace, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lot: %w", err)
	}
	if lot == nil {
		return nil, ErrLotNotFound
	}

	spaces, err := s.spaces.ListByLot(ctx, lotID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces: %w", err)
	}
	return spaces, nil
}

// SetActive toggles assignment participation under the space row lock, so
// it cannot race an in-flight assign on the same space.
func (s *spaceService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.ParkingSpace, error) {
	var updated *models.ParkingSpace
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		space, err := s.spaces.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if space == nil {
			return ErrSpaceNotFound
		}
		if !active && space.IsOccupied {
			return ErrSpaceOccupied
		}

		updated, err = s.spaces.SetActive(ctx, tx, id, active)
		if err != nil {
			return err
		}
		if updated == nil {
			return ErrSpaceNotFound
		}

		_, err = s.lots.RefreshAvailability(ctx, tx, space.LotID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Space active flag updated", map[string]interface{}{
		"space_id": id,
		"active":   active,
	})
	return updated, nil
}

// DeleteSpace soft-deletes the space. A space holding a vehicle cannot be
// deleted; release it first.
func (s *spaceService) DeleteSpace(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		space, err := s.spaces.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if space == nil {
			return ErrSpaceNotFound
		}
		if space.IsOccupied {
			return ErrSpaceOccupied
		}

		if err := s.spaces.SoftDelete(ctx, tx, id); err != nil {
			return err
		}

		_, err = s.lots.RefreshAvailability(ctx, tx, space.LotID)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("Space decommissioned", map[string]interface{}{
		"space_id": id,
	})
	return nil
}

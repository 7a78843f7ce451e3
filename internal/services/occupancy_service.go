package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/odavaloshdz/estacionador/api/internal/logger"
	"github.com/odavaloshdz/estacionador/api/internal/models"
	"github.com/odavaloshdz/estacionador/api/internal/realtime"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
)

// Attempts at inserting a ticket before giving up on number collisions.
const ticketNumberAttempts = 3

// Service-level errors. Precondition errors leave state untouched: every
// operation runs in a single transaction that rolls back on failure.
var (
	ErrLotNotFound            = errors.New("lot not found")
	ErrSpaceNotFound          = errors.New("space not found")
	ErrSpaceInactive          = errors.New("space is inactive")
	ErrSpaceNotAvailable      = errors.New("space is not available")
	ErrSpaceOccupied          = errors.New("space has an active ticket")
	ErrNoActiveTicket         = errors.New("space has no active ticket")
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrTicketAlreadyClosed    = errors.New("ticket is already closed")
	ErrMissingLicensePlate    = errors.New("license plate is required")
	ErrInvalidVehicleType     = errors.New("invalid vehicle type")
	ErrDuplicateSpaceNumber   = errors.New("duplicate space number in lot")
	ErrNegativeAmountOverride = errors.New("amount override must be non-negative")
)

// TxRunner runs a function inside one database transaction.
// *database.Database satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Notifier receives committed occupancy change events.
type Notifier interface {
	Publish(ctx context.Context, event realtime.Event)
}

// AssignRequest carries the vehicle details for opening a ticket.
type AssignRequest struct {
	LicensePlate string
	VehicleType  models.VehicleType
	VehicleColor *string
	VehicleModel *string
	Notes        *string
}

// ReleaseRequest carries the optional overrides for closing a ticket.
// When Amount is nil the fee calculator computes it from the rate table.
type ReleaseRequest struct {
	Amount *float64
}

// OccupancyService is the operation surface that transitions a space and
// its ticket together. Each operation is one transaction: the ticket write,
// the space occupancy write and the lot counter recompute commit or roll
// back as a unit, and the locked space row serializes concurrent calls on
// the same space.
type OccupancyService interface {
	// Assign opens a ticket for the vehicle and occupies the space.
	// Fails with ErrSpaceNotFound, ErrSpaceInactive or ErrSpaceNotAvailable.
	Assign(ctx context.Context, spaceID uuid.UUID, req AssignRequest, actorID string) (*models.Ticket, error)

	// Release closes the space's active ticket, computing the fee from the
	// injected rate table unless the request overrides it, and frees the
	// space. Fails with ErrSpaceNotFound or ErrNoActiveTicket.
	Release(ctx context.Context, spaceID uuid.UUID, req ReleaseRequest, actorID string) (*models.Ticket, error)

	// EmptyLot closes every active ticket in the lot with a zero amount and
	// frees every space. Idempotent: on an already-empty lot it closes
	// nothing and returns 0. Fails with ErrLotNotFound.
	EmptyLot(ctx context.Context, lotID uuid.UUID, actorID string) (int, error)
}

// occupancyService is the concrete implementation of OccupancyService.
type occupancyService struct {
	tx       TxRunner
	lots     repository.LotRepository
	spaces   repository.SpaceRepository
	tickets  repository.TicketRepository
	rates    models.RateTable
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewOccupancyService creates a new instance of OccupancyService.
func NewOccupancyService(
	tx TxRunner,
	lots repository.LotRepository,
	spaces repository.SpaceRepository,
	tickets repository.TicketRepository,
	rates models.RateTable,
	notifier Notifier,
	log *logger.Logger,
) OccupancyService {
	return &occupancyService{
		tx:       tx,
		lots:     lots,
		spaces:   spaces,
		tickets:  tickets,
		rates:    rates,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Assign validates the vehicle details, then atomically opens a ticket and
// occupies the space.
func (s *occupancyService) Assign(ctx context.Context, spaceID uuid.UUID, req AssignRequest, actorID string) (*models.Ticket, error) {
	// Validate input before touching persistence.
	plate := strings.ToUpper(strings.TrimSpace(req.LicensePlate))
	if plate == "" {
		return nil, ErrMissingLicensePlate
	}
	if !req.VehicleType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVehicleType, req.VehicleType)
	}

	entryTime := s.now()
	ticket := &models.Ticket{
		ID:           uuid.New(),
		SpaceID:      spaceID,
		LicensePlate: plate,
		VehicleType:  req.VehicleType,
		VehicleColor: req.VehicleColor,
		VehicleModel: req.VehicleModel,
		EntryTime:    entryTime,
		Status:       models.TicketStatusActive,
		CreatedBy:    actorID,
		Notes:        req.Notes,
	}

	var availableSpaces int
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		space, err := s.spaces.GetForUpdate(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if space == nil {
			return ErrSpaceNotFound
		}
		if space.SpaceType == models.SpaceTypeNonParking {
			return ErrSpaceNotAvailable
		}
		if !space.IsActive {
			return ErrSpaceInactive
		}
		if space.IsOccupied {
			return ErrSpaceNotAvailable
		}

		// Occupancy/ticket pairing backstop: the flag said free, so no
		// active ticket may exist for the space.
		existing, err := s.tickets.FindActiveBySpace(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrSpaceNotAvailable
		}

		ticket.LotID = space.LotID
		if err := s.insertWithFreshNumber(ctx, tx, ticket); err != nil {
			return err
		}

		if err := s.spaces.SetOccupancy(ctx, tx, spaceID, true, &ticket.VehicleType, &ticket.LicensePlate); err != nil {
			return err
		}

		availableSpaces, err = s.lots.RefreshAvailability(ctx, tx, space.LotID)
		return err
	})
	if err != nil {
		s.logOutcome("Assign failed", err, spaceID, actorID)
		return nil, err
	}

	s.log.Info("Space assigned", map[string]interface{}{
		"space_id":      spaceID,
		"ticket_number": ticket.TicketNumber,
		"license_plate": ticket.LicensePlate,
		"actor_id":      actorID,
	})

	s.publish(ctx, realtime.Event{
		Type:            realtime.EventSpaceOccupied,
		LotID:           ticket.LotID,
		SpaceID:         &spaceID,
		Ticket:          ticket,
		AvailableSpaces: availableSpaces,
		OccurredAt:      entryTime,
	})

	return ticket, nil
}

// Release atomically closes the active ticket and frees the space.
func (s *occupancyService) Release(ctx context.Context, spaceID uuid.UUID, req ReleaseRequest, actorID string) (*models.Ticket, error) {
	if req.Amount != nil && *req.Amount < 0 {
		return nil, ErrNegativeAmountOverride
	}

	var (
		closed          *models.Ticket
		availableSpaces int
	)
	exitTime := s.now()

	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		space, err := s.spaces.GetForUpdate(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if space == nil {
			return ErrSpaceNotFound
		}

		active, err := s.tickets.FindActiveBySpace(ctx, tx, spaceID)
		if err != nil {
			return err
		}
		if active == nil {
			return ErrNoActiveTicket
		}

		durationMinutes := ComputeDurationMinutes(active.EntryTime, exitTime)
		amount := ComputeAmount(active.VehicleType, active.EntryTime, exitTime, s.rates)
		if req.Amount != nil {
			amount = *req.Amount
		}

		closed, err = s.tickets.Close(ctx, tx, active.ID, exitTime, durationMinutes, amount, actorID)
		if err != nil {
			return err
		}
		if closed == nil {
			// The ticket was active under the space lock a moment ago, so
			// this only happens on direct ledger interference.
			return ErrTicketAlreadyClosed
		}

		if err := s.spaces.SetOccupancy(ctx, tx, spaceID, false, nil, nil); err != nil {
			return err
		}

		availableSpaces, err = s.lots.RefreshAvailability(ctx, tx, space.LotID)
		return err
	})
	if err != nil {
		s.logOutcome("Release failed", err, spaceID, actorID)
		return nil, err
	}

	s.log.Info("Space released", map[string]interface{}{
		"space_id":      spaceID,
		"ticket_number": closed.TicketNumber,
		"amount":        *closed.Amount,
		"duration_min":  *closed.DurationMinutes,
		"actor_id":      actorID,
	})

	s.publish(ctx, realtime.Event{
		Type:            realtime.EventSpaceReleased,
		LotID:           closed.LotID,
		SpaceID:         &spaceID,
		Ticket:          closed,
		AvailableSpaces: availableSpaces,
		OccurredAt:      exitTime,
	})

	return closed, nil
}

// EmptyLot is the administrative reset: no fee is charged for the closed
// tickets. Locking the occupied space rows first serializes the reset
// behind in-flight single-space operations on the same lot.
func (s *occupancyService) EmptyLot(ctx context.Context, lotID uuid.UUID, actorID string) (int, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		return 0, err
	}
	if lot == nil {
		return 0, ErrLotNotFound
	}

	var (
		closedTickets   int64
		freedSpaces     int64
		availableSpaces int
	)
	exitTime := s.now()

	err = s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.spaces.LockOccupiedByLot(ctx, tx, lotID); err != nil {
			return err
		}

		closedTickets, err = s.tickets.CloseAllActiveByLot(ctx, tx, lotID, exitTime, actorID)
		if err != nil {
			return err
		}

		freedSpaces, err = s.spaces.ClearOccupancyByLot(ctx, tx, lotID)
		if err != nil {
			return err
		}

		availableSpaces, err = s.lots.RefreshAvailability(ctx, tx, lotID)
		return err
	})
	if err != nil {
		s.log.Error("EmptyLot failed", err, map[string]interface{}{
			"lot_id":   lotID,
			"actor_id": actorID,
		})
		return 0, err
	}

	if closedTickets != freedSpaces {
		// Indicates prior pairing drift between spaces and the ledger; the
		// reset itself has just restored the invariant.
		s.log.Warn("EmptyLot closed tickets and freed spaces diverged", map[string]interface{}{
			"lot_id":         lotID,
			"closed_tickets": closedTickets,
			"freed_spaces":   freedSpaces,
		})
	}

	s.log.Info("Lot emptied", map[string]interface{}{
		"lot_id":         lotID,
		"closed_tickets": closedTickets,
		"actor_id":       actorID,
	})

	if closedTickets > 0 || freedSpaces > 0 {
		s.publish(ctx, realtime.Event{
			Type:            realtime.EventLotEmptied,
			LotID:           lotID,
			AvailableSpaces: availableSpaces,
			OccurredAt:      exitTime,
		})
	}

	return int(closedTickets), nil
}

// insertWithFreshNumber inserts the ticket, regenerating the human-facing
// number when it collides with an existing one. The number is display-only;
// the uuid is the identity, so retrying is safe. The repository reports a
// collision as ErrDuplicateTicketNumber without erroring on the server, so
// the enclosing transaction stays usable across attempts.
func (s *occupancyService) insertWithFreshNumber(ctx context.Context, tx pgx.Tx, ticket *models.Ticket) error {
	var err error
	for attempt := 0; attempt < ticketNumberAttempts; attempt++ {
		ticket.TicketNumber = models.GenerateTicketNumber(ticket.EntryTime)
		err = s.tickets.Insert(ctx, tx, ticket)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateTicketNumber) {
			return err
		}
		s.log.Warn("Ticket number collision, regenerating", map[string]interface{}{
			"ticket_number": ticket.TicketNumber,
			"attempt":       attempt + 1,
		})
	}
	return fmt.Errorf("exhausted ticket number attempts: %w", err)
}

func (s *occupancyService) publish(ctx context.Context, event realtime.Event) {
	if s.notifier != nil {
		s.notifier.Publish(ctx, event)
	}
}

func (s *occupancyService) logOutcome(msg string, err error, spaceID uuid.UUID, actorID string) {
	fields := map[string]interface{}{
		"space_id": spaceID,
		"actor_id": actorID,
	}
	switch {
	case errors.Is(err, ErrSpaceNotFound),
		errors.Is(err, ErrSpaceInactive),
		errors.Is(err, ErrSpaceNotAvailable),
		errors.Is(err, ErrNoActiveTicket),
		errors.Is(err, ErrTicketAlreadyClosed):
		fields["reason"] = err.Error()
		s.log.Warn(msg, fields)
	default:
		s.log.Error(msg, err, fields)
	}
}

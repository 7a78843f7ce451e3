package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/odavaloshdz/estacionador/api/internal/database"
	"github.com/odavaloshdz/estacionador/api/internal/models"
)

// TicketFilter narrows List results. Nil fields are ignored.
type TicketFilter struct {
	LotID        *uuid.UUID
	Status       *models.TicketStatus
	LicensePlate *string
}

// Maximum number of tickets returned by List.
const maxTicketResults = 200

// ErrDuplicateTicketNumber reports that Insert hit an existing ticket number.
// The caller regenerates the number and retries.
var ErrDuplicateTicketNumber = errors.New("ticket number already exists")

// TicketRepository defines the interface for ticket ledger data access. The
// ledger is append-mostly: tickets are inserted once, closed once via a
// status-guarded update, and never mutated afterwards.
type TicketRepository interface {
	// GetByID returns the ticket with the given id.
	// Returns nil, nil if no ticket is found (not an error).
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)

	// List returns tickets matching the filter, newest entry first.
	List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error)

	// FindActiveBySpace returns the space's active ticket inside the
	// caller's querier. Returns nil, nil when the space has no active
	// ticket.
	FindActiveBySpace(ctx context.Context, q Querier, spaceID uuid.UUID) (*models.Ticket, error)

	// Insert persists a new ticket. A number collision returns
	// ErrDuplicateTicketNumber without raising a server-side error, so the
	// caller's transaction stays usable and the insert can be retried with a
	// fresh number.
	Insert(ctx context.Context, q Querier, ticket *models.Ticket) error

	// Close marks an active ticket closed, setting exit time, duration,
	// amount and the closing actor in one guarded update. Returns nil, nil
	// when the ticket is not active anymore (or does not exist); the caller
	// distinguishes the two.
	Close(ctx context.Context, q Querier, id uuid.UUID, exitTime time.Time, durationMinutes int, amount float64, closedBy string) (*models.Ticket, error)

	// CloseAllActiveByLot closes every active ticket in the lot with a zero
	// amount (administrative override), returning how many were closed.
	CloseAllActiveByLot(ctx context.Context, q Querier, lotID uuid.UUID, exitTime time.Time, closedBy string) (int64, error)
}

// ticketRepository is the concrete implementation of TicketRepository.
type ticketRepository struct {
	db *database.Database
}

// NewTicketRepository creates a new instance of TicketRepository.
func NewTicketRepository(db *database.Database) TicketRepository {
	return &ticketRepository{
		db: db,
	}
}

const ticketColumns = `
	id,
	ticket_number,
	space_id,
	lot_id,
	license_plate,
	vehicle_type,
	vehicle_color,
	vehicle_model,
	entry_time,
	exit_time,
	duration_minutes,
	amount,
	status,
	created_by,
	closed_by,
	notes,
	created_at,
	updated_at`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var ticket models.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.SpaceID,
		&ticket.LotID,
		&ticket.LicensePlate,
		&ticket.VehicleType,
		&ticket.VehicleColor,
		&ticket.VehicleModel,
		&ticket.EntryTime,
		&ticket.ExitTime,
		&ticket.DurationMinutes,
		&ticket.Amount,
		&ticket.Status,
		&ticket.CreatedBy,
		&ticket.ClosedBy,
		&ticket.Notes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByID queries the ticket by primary key.
func (r *ticketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query ticket %s: %w", id, err)
	}
	return ticket, nil
}

// List returns tickets matching the filter, newest entry first.
func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	args := []any{}

	if filter.LotID != nil {
		args = append(args, *filter.LotID)
		query += fmt.Sprintf(" AND lot_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.LicensePlate != nil {
		args = append(args, *filter.LicensePlate)
		query += fmt.Sprintf(" AND license_plate = $%d", len(args))
	}

	args = append(args, maxTicketResults)
	query += fmt.Sprintf(" ORDER BY entry_time DESC LIMIT $%d", len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := []models.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket row: %w", err)
		}
		tickets = append(tickets, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket rows: %w", err)
	}
	return tickets, nil
}

// FindActiveBySpace returns the single active ticket for the space, if any.
func (r *ticketRepository) FindActiveBySpace(ctx context.Context, q Querier, spaceID uuid.UUID) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE space_id = $1 AND status = 'active'`

	ticket, err := scanTicket(q.QueryRow(ctx, query, spaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active ticket for space %s: %w", spaceID, err)
	}
	return ticket, nil
}

// Insert persists a new active ticket. ON CONFLICT DO NOTHING keeps a number
// collision from aborting the enclosing transaction: a failed INSERT would
// poison the transaction on the server (SQLSTATE 25P02 on every later
// statement), making an in-transaction retry impossible. A swallowed conflict
// returns no row, which surfaces here as ErrDuplicateTicketNumber.
func (r *ticketRepository) Insert(ctx context.Context, q Querier, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets
			(id, ticket_number, space_id, lot_id, license_plate, vehicle_type,
			 vehicle_color, vehicle_model, entry_time, status, created_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (ticket_number) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		ticket.ID,
		ticket.TicketNumber,
		ticket.SpaceID,
		ticket.LotID,
		ticket.LicensePlate,
		ticket.VehicleType,
		ticket.VehicleColor,
		ticket.VehicleModel,
		ticket.EntryTime,
		ticket.Status,
		ticket.CreatedBy,
		ticket.Notes,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ticket number %s: %w", ticket.TicketNumber, ErrDuplicateTicketNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to insert ticket %s: %w", ticket.TicketNumber, err)
	}
	return nil
}

// Close performs the one-shot active -> closed transition. The status guard
// in the WHERE clause makes a second close a no-row update, not an
// overwrite.
func (r *ticketRepository) Close(ctx context.Context, q Querier, id uuid.UUID, exitTime time.Time, durationMinutes int, amount float64, closedBy string) (*models.Ticket, error) {
	query := `
		UPDATE tickets
		SET status = 'closed',
		    exit_time = $2,
		    duration_minutes = $3,
		    amount = $4,
		    closed_by = $5,
		    updated_at = now()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(q.QueryRow(ctx, query, id, exitTime, durationMinutes, amount, closedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to close ticket %s: %w", id, err)
	}
	return ticket, nil
}

// CloseAllActiveByLot closes every active ticket in the lot with amount 0.
// Duration is computed per row from the shared exit time.
func (r *ticketRepository) CloseAllActiveByLot(ctx context.Context, q Querier, lotID uuid.UUID, exitTime time.Time, closedBy string) (int64, error) {
	query := `
		UPDATE tickets
		SET status = 'closed',
		    exit_time = $2,
		    duration_minutes = GREATEST(0, ROUND(EXTRACT(EPOCH FROM ($2 - entry_time)) / 60))::int,
		    amount = 0,
		    closed_by = $3,
		    updated_at = now()
		WHERE lot_id = $1 AND status = 'active'
	`

	tag, err := q.Exec(ctx, query, lotID, exitTime, closedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to close active tickets for lot %s: %w", lotID, err)
	}
	return tag.RowsAffected(), nil
}

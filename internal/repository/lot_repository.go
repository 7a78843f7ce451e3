package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/odavaloshdz/estacionador/api/internal/database"
	"github.com/odavaloshdz/estacionador/api/internal/models"
)

// LotRepository defines the interface for parking lot data access operations.
type LotRepository interface {
	// Insert persists a new lot using the caller's querier so lot creation
	// and space provisioning share one transaction.
	Insert(ctx context.Context, q Querier, lot *models.ParkingLot) error

	// GetByID returns the lot with the given id.
	// Returns nil, nil if no lot is found (not an error).
	GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingLot, error)

	// List returns all lots that have not been soft-deleted.
	List(ctx context.Context) ([]models.ParkingLot, error)

	// RefreshAvailability recomputes the lot's available_spaces counter from
	// the spaces table and persists it, returning the new value. It is always
	// a full recompute, never an increment, so concurrent writers cannot make
	// the counter drift.
	RefreshAvailability(ctx context.Context, q Querier, lotID uuid.UUID) (int, error)
}

// lotRepository is the concrete implementation of LotRepository.
type lotRepository struct {
	db *database.Database
}

// NewLotRepository creates a new instance of LotRepository.
func NewLotRepository(db *database.Database) LotRepository {
	return &lotRepository{
		db: db,
	}
}

const lotColumns = `
	id,
	name,
	address,
	total_spaces,
	available_spaces,
	created_at,
	updated_at,
	deleted_at`

func scanLot(row pgx.Row) (*models.ParkingLot, error) {
	var lot models.ParkingLot
	err := row.Scan(
		&lot.ID,
		&lot.Name,
		&lot.Address,
		&lot.TotalSpaces,
		&lot.AvailableSpaces,
		&lot.CreatedAt,
		&lot.UpdatedAt,
		&lot.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// Insert persists a new lot row.
func (r *lotRepository) Insert(ctx context.Context, q Querier, lot *models.ParkingLot) error {
	query := `
		INSERT INTO parking_lots (id, name, address, total_spaces, available_spaces)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		lot.ID,
		lot.Name,
		lot.Address,
		lot.TotalSpaces,
		lot.AvailableSpaces,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert lot %q: %w", lot.Name, err)
	}
	return nil
}

// GetByID queries the lot by primary key, excluding soft-deleted rows.
func (r *lotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1 AND deleted_at IS NULL`

	lot, err := scanLot(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query lot %s: %w", id, err)
	}
	return lot, nil
}

// List returns all lots ordered by name.
func (r *lotRepository) List(ctx context.Context) ([]models.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE deleted_at IS NULL ORDER BY name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	lots := []models.ParkingLot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot row: %w", err)
		}
		lots = append(lots, *lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lot rows: %w", err)
	}
	return lots, nil
}

// RefreshAvailability recomputes and stores the denormalized counter.
// A space counts as available when it is active, free, not soft-deleted and
// of a type that can hold a vehicle.
func (r *lotRepository) RefreshAvailability(ctx context.Context, q Querier, lotID uuid.UUID) (int, error) {
	query := `
		UPDATE parking_lots
		SET available_spaces = (
			SELECT COUNT(*)
			FROM parking_spaces
			WHERE lot_id = $1
			  AND deleted_at IS NULL
			  AND is_active
			  AND NOT is_occupied
			  AND space_type <> 'non_parking'
		),
		updated_at = now()
		WHERE id = $1
		RETURNING available_spaces
	`

	var available int
	if err := q.QueryRow(ctx, query, lotID).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("lot %s not found while refreshing availability", lotID)
		}
		return 0, fmt.Errorf("failed to refresh availability for lot %s: %w", lotID, err)
	}
	return available, nil
}

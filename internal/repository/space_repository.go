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

// SpaceFilter narrows ListByLot results. Nil fields are ignored.
type SpaceFilter struct {
	Occupied  *bool
	Active    *bool
	SpaceType *models.SpaceType
}

// SpaceRepository defines the interface for parking space data access
// operations. Methods that take a Querier participate in the caller's
// transaction; the occupancy controller uses them so the space write, the
// ticket write and the counter recompute commit or roll back together.
type SpaceRepository interface {
	// GetByID returns the space with the given id.
	// Returns nil, nil if no space is found (not an error).
	GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingSpace, error)

	// GetForUpdate loads the space inside the caller's transaction with a
	// row lock, serializing concurrent assign/release calls on the same
	// space. Returns nil, nil if no space is found.
	GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.ParkingSpace, error)

	// ListByLot returns the lot's spaces matching the filter, ordered by
	// space number.
	ListByLot(ctx context.Context, lotID uuid.UUID, filter SpaceFilter) ([]models.ParkingSpace, error)

	// CountAvailable derives the number of assignable spaces in the lot.
	CountAvailable(ctx context.Context, lotID uuid.UUID) (int, error)

	// BulkInsert provisions the given spaces in one statement batch.
	BulkInsert(ctx context.Context, q Querier, spaces []models.ParkingSpace) error

	// LockOccupiedByLot loads and row-locks every occupied space of the lot,
	// so a lot-wide release serializes behind in-flight single-space
	// operations.
	LockOccupiedByLot(ctx context.Context, q Querier, lotID uuid.UUID) ([]models.ParkingSpace, error)

	// SetOccupancy updates the occupancy flag and the occupant columns.
	// Vehicle type and plate must be nil when occupied is false.
	SetOccupancy(ctx context.Context, q Querier, id uuid.UUID, occupied bool, vehicleType *models.VehicleType, licensePlate *string) error

	// ClearOccupancyByLot frees every occupied space of the lot, returning
	// the number of spaces freed.
	ClearOccupancyByLot(ctx context.Context, q Querier, lotID uuid.UUID) (int64, error)

	// SetActive toggles whether the space participates in assignment.
	// Returns the updated space, or nil, nil if no space is found.
	SetActive(ctx context.Context, q Querier, id uuid.UUID, active bool) (*models.ParkingSpace, error)

	// SoftDelete marks the space as decommissioned.
	SoftDelete(ctx context.Context, q Querier, id uuid.UUID) error
}

// spaceRepository is the concrete implementation of SpaceRepository.
type spaceRepository struct {
	db *database.Database
}

// NewSpaceRepository creates a new instance of SpaceRepository.
func NewSpaceRepository(db *database.Database) SpaceRepository {
	return &spaceRepository{
		db: db,
	}
}

const spaceColumns = `
	id,
	lot_id,
	space_number,
	space_type,
	is_occupied,
	is_active,
	vehicle_type,
	license_plate,
	row_num,
	col_num,
	floor,
	created_at,
	updated_at,
	deleted_at`

func scanSpace(row pgx.Row) (*models.ParkingSpace, error) {
	var space models.ParkingSpace
	err := row.Scan(
		&space.ID,
		&space.LotID,
		&space.SpaceNumber,
		&space.SpaceType,
		&space.IsOccupied,
		&space.IsActive,
		&space.VehicleType,
		&space.LicensePlate,
		&space.Row,
		&space.Column,
		&space.Floor,
		&space.CreatedAt,
		&space.UpdatedAt,
		&space.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &space, nil
}

// GetByID queries the space by primary key, excluding soft-deleted rows.
func (r *spaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE id = $1 AND deleted_at IS NULL`

	space, err := scanSpace(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query space %s: %w", id, err)
	}
	return space, nil
}

// GetForUpdate locks the space row for the remainder of the transaction.
func (r *spaceRepository) GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	space, err := scanSpace(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock space %s: %w", id, err)
	}
	return space, nil
}

// ListByLot returns the lot's spaces matching the filter.
func (r *spaceRepository) ListByLot(ctx context.Context, lotID uuid.UUID, filter SpaceFilter) ([]models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE lot_id = $1 AND deleted_at IS NULL`
	args := []any{lotID}

	if filter.Occupied != nil {
		args = append(args, *filter.Occupied)
		query += fmt.Sprintf(" AND is_occupied = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if filter.SpaceType != nil {
		args = append(args, *filter.SpaceType)
		query += fmt.Sprintf(" AND space_type = $%d", len(args))
	}
	query += " ORDER BY space_number"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces for lot %s: %w", lotID, err)
	}
	defer rows.Close()

	spaces := []models.ParkingSpace{}
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space row: %w", err)
		}
		spaces = append(spaces, *space)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating space rows: %w", err)
	}
	return spaces, nil
}

// CountAvailable derives the assignable-space count from current state.
func (r *spaceRepository) CountAvailable(ctx context.Context, lotID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM parking_spaces
		WHERE lot_id = $1
		  AND deleted_at IS NULL
		  AND is_active
		  AND NOT is_occupied
		  AND space_type <> 'non_parking'
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, lotID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count available spaces for lot %s: %w", lotID, err)
	}
	return count, nil
}

// BulkInsert provisions spaces at lot setup.
func (r *spaceRepository) BulkInsert(ctx context.Context, q Querier, spaces []models.ParkingSpace) error {
	query := `
		INSERT INTO parking_spaces
			(id, lot_id, space_number, space_type, is_occupied, is_active, row_num, col_num, floor)
		VALUES ($1, $2, $3, $4, false, $5, $6, $7, $8)
	`

	for i := range spaces {
		space := &spaces[i]
		_, err := q.Exec(ctx, query,
			space.ID,
			space.LotID,
			space.SpaceNumber,
			space.SpaceType,
			space.IsActive,
			space.Row,
			space.Column,
			space.Floor,
		)
		if err != nil {
			return fmt.Errorf("failed to insert space %q: %w", space.SpaceNumber, err)
		}
	}
	return nil
}

// LockOccupiedByLot loads and locks every occupied space of the lot.
func (r *spaceRepository) LockOccupiedByLot(ctx context.Context, q Querier, lotID uuid.UUID) ([]models.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + `
		FROM parking_spaces
		WHERE lot_id = $1 AND deleted_at IS NULL AND is_occupied
		ORDER BY space_number
		FOR UPDATE`

	rows, err := q.Query(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock occupied spaces for lot %s: %w", lotID, err)
	}
	defer rows.Close()

	spaces := []models.ParkingSpace{}
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space row: %w", err)
		}
		spaces = append(spaces, *space)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating space rows: %w", err)
	}
	return spaces, nil
}

// SetOccupancy writes the occupancy flag and occupant columns.
func (r *spaceRepository) SetOccupancy(ctx context.Context, q Querier, id uuid.UUID, occupied bool, vehicleType *models.VehicleType, licensePlate *string) error {
	query := `
		UPDATE parking_spaces
		SET is_occupied = $2, vehicle_type = $3, license_plate = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := q.Exec(ctx, query, id, occupied, vehicleType, licensePlate)
	if err != nil {
		return fmt.Errorf("failed to set occupancy for space %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("space %s not found while setting occupancy", id)
	}
	return nil
}

// ClearOccupancyByLot frees every occupied space of the lot in one statement.
func (r *spaceRepository) ClearOccupancyByLot(ctx context.Context, q Querier, lotID uuid.UUID) (int64, error) {
	query := `
		UPDATE parking_spaces
		SET is_occupied = false, vehicle_type = NULL, license_plate = NULL, updated_at = now()
		WHERE lot_id = $1 AND deleted_at IS NULL AND is_occupied
	`

	tag, err := q.Exec(ctx, query, lotID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear occupancy for lot %s: %w", lotID, err)
	}
	return tag.RowsAffected(), nil
}

// SetActive toggles assignment participation for the space.
func (r *spaceRepository) SetActive(ctx context.Context, q Querier, id uuid.UUID, active bool) (*models.ParkingSpace, error) {
	query := `
		UPDATE parking_spaces
		SET is_active = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + spaceColumns

	space, err := scanSpace(q.QueryRow(ctx, query, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set active for space %s: %w", id, err)
	}
	return space, nil
}

// SoftDelete marks the space as decommissioned.
func (r *spaceRepository) SoftDelete(ctx context.Context, q Querier, id uuid.UUID) error {
	query := `
		UPDATE parking_spaces
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete space %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("space %s not found while soft-deleting", id)
	}
	return nil
}

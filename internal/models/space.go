package models

import (
	"time"

	"github.com/google/uuid"
)

// SpaceType classifies a parking space.
type SpaceType string

const (
	SpaceTypeRegular  SpaceType = "regular"
	SpaceTypeHandicap SpaceType = "handicap"
	SpaceTypeReserved SpaceType = "reserved"
	// SpaceTypeNonParking marks slots that exist on the floor plan (pillars,
	// lanes, storage) but can never hold a vehicle. They sit outside the
	// occupancy state machine permanently.
	SpaceTypeNonParking SpaceType = "non_parking"
)

// Valid reports whether t is one of the known space types.
func (t SpaceType) Valid() bool {
	switch t {
	case SpaceTypeRegular, SpaceTypeHandicap, SpaceTypeReserved, SpaceTypeNonParking:
		return true
	}
	return false
}

// VehicleType classifies the vehicle occupying a space; it selects the
// hourly rate when the stay is billed.
type VehicleType string

const (
	VehicleTypeAuto       VehicleType = "auto"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeTruck      VehicleType = "truck"
	VehicleTypeBicycle    VehicleType = "bicycle"
)

// Valid reports whether v is one of the known vehicle types.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleTypeAuto, VehicleTypeMotorcycle, VehicleTypeTruck, VehicleTypeBicycle:
		return true
	}
	return false
}

// ParkingSpace is a single parking slot, the unit of occupancy.
// VehicleType and LicensePlate describe the current occupant and are only
// set while IsOccupied is true. Row/Column/Floor are descriptive floor-plan
// metadata; no invariant depends on them.
type ParkingSpace struct {
	ID           uuid.UUID    `json:"id"`
	LotID        uuid.UUID    `json:"lotId"`
	SpaceNumber  string       `json:"spaceNumber"`
	SpaceType    SpaceType    `json:"spaceType"`
	IsOccupied   bool         `json:"isOccupied"`
	IsActive     bool         `json:"isActive"`
	VehicleType  *VehicleType `json:"vehicleType,omitempty"`
	LicensePlate *string      `json:"licensePlate,omitempty"`
	Row          *int         `json:"row,omitempty"`
	Column       *int         `json:"column,omitempty"`
	Floor        *int         `json:"floor,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	DeletedAt    *time.Time   `json:"-"`
}

// Assignable reports whether a vehicle may be assigned to the space right
// now: the space is active, free, and of a type that can hold a vehicle.
func (s *ParkingSpace) Assignable() bool {
	return s.IsActive && !s.IsOccupied && s.SpaceType != SpaceTypeNonParking && s.DeletedAt == nil
}

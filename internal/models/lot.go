package models

import (
	"time"

	"github.com/google/uuid"
)

// ParkingLot is a collection of spaces belonging to one location.
// AvailableSpaces is denormalized for fast dashboard reads and is always
// recomputed from the spaces table inside the same transaction as the
// occupancy change that invalidated it, never incremented in place.
type ParkingLot struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Address         *string    `json:"address,omitempty"`
	TotalSpaces     int        `json:"totalSpaces"`
	AvailableSpaces int        `json:"availableSpaces"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `json:"-"`
}

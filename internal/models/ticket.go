package models

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// TicketStatus tracks the lifecycle of a vehicle stay.
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"
	TicketStatusClosed    TicketStatus = "closed"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Ticket records one vehicle's stay, from entry to exit. ExitTime,
// DurationMinutes, Amount and ClosedBy are nil while the ticket is active
// and are all set atomically when it is closed. A ticket is closed exactly
// once and never mutated afterwards.
type Ticket struct {
	ID              uuid.UUID    `json:"id"`
	TicketNumber    string       `json:"ticketNumber"`
	SpaceID         uuid.UUID    `json:"spaceId"`
	LotID           uuid.UUID    `json:"lotId"`
	LicensePlate    string       `json:"licensePlate"`
	VehicleType     VehicleType  `json:"vehicleType"`
	VehicleColor    *string      `json:"vehicleColor,omitempty"`
	VehicleModel    *string      `json:"vehicleModel,omitempty"`
	EntryTime       time.Time    `json:"entryTime"`
	ExitTime        *time.Time   `json:"exitTime,omitempty"`
	DurationMinutes *int         `json:"durationMinutes,omitempty"`
	Amount          *float64     `json:"amount,omitempty"`
	Status          TicketStatus `json:"status"`
	CreatedBy       string       `json:"createdBy"`
	ClosedBy        *string      `json:"closedBy,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// GenerateTicketNumber builds a human-facing ticket number in the form
// T-<YYYYMMDD>-<4 digits>. The random suffix is only probabilistically
// unique; the tickets table carries a unique index on the column and the
// insert is retried with a fresh number on collision. The ticket's real
// identity is its uuid.
func GenerateTicketNumber(at time.Time) string {
	return fmt.Sprintf("T-%s-%04d", at.UTC().Format("20060102"), rand.IntN(10000))
}

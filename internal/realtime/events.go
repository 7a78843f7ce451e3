package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/odavaloshdz/estacionador/api/internal/models"
)

// EventType identifies an occupancy change event.
type EventType string

const (
	EventSpaceOccupied EventType = "space.occupied"
	EventSpaceReleased EventType = "space.released"
	EventLotEmptied    EventType = "lot.emptied"
)

// Event is the change notification pushed to subscribed dashboards after an
// occupancy transition has committed. It is a consistency backstop: the HTTP
// response of the operation that caused it remains the authoritative result,
// and subscribers use events only to refresh their view.
type Event struct {
	Type            EventType      `json:"type"`
	LotID           uuid.UUID      `json:"lotId"`
	SpaceID         *uuid.UUID     `json:"spaceId,omitempty"`
	Ticket          *models.Ticket `json:"ticket,omitempty"`
	AvailableSpaces int            `json:"availableSpaces"`
	OccurredAt      time.Time      `json:"occurredAt"`
}

// Publisher delivers committed change events to one transport.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	events []Event
}

func (p *capturePublisher) Publish(_ context.Context, event Event) {
	p.events = append(p.events, event)
}

func TestFanout_ForwardsToAllPublishers(t *testing.T) {
	// Arrange
	first := &capturePublisher{}
	second := &capturePublisher{}
	fanout := NewFanout(first, second)

	event := Event{
		Type:            EventSpaceOccupied,
		LotID:           uuid.New(),
		AvailableSpaces: 3,
		OccurredAt:      time.Now().UTC(),
	}

	// Act
	fanout.Publish(context.Background(), event)

	// Assert
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, event.Type, first.events[0].Type)
	assert.Equal(t, event.LotID, second.events[0].LotID)
}

func TestFanout_NoPublishers(t *testing.T) {
	fanout := NewFanout()

	// Must not panic with nothing configured.
	fanout.Publish(context.Background(), Event{Type: EventLotEmptied})
}

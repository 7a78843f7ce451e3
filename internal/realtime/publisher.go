package realtime

import (
	"context"
	"encoding/json"

	"github.com/odavaloshdz/estacionador/api/internal/logger"
	"github.com/redis/go-redis/v9"
)

// EventChannel is the Redis pub/sub channel occupancy events are published
// on. Other API instances (and any external consumer) subscribe to it.
const EventChannel = "estacionador:events"

// RedisPublisher publishes committed occupancy events to Redis so change
// feeds work across multiple API instances behind one load balancer.
type RedisPublisher struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisPublisher creates a publisher on the given client.
func NewRedisPublisher(client *redis.Client, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		log:    log,
	}
}

// Publish marshals the event and publishes it. Failures are logged, not
// propagated: the operation that produced the event has already committed.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal occupancy event", err, map[string]interface{}{
			"type": event.Type,
		})
		return
	}

	if err := p.client.Publish(ctx, EventChannel, payload).Err(); err != nil {
		p.log.Error("Failed to publish occupancy event to redis", err, map[string]interface{}{
			"type":    event.Type,
			"channel": EventChannel,
		})
	}
}

// Fanout delivers each event to every configured publisher.
type Fanout struct {
	publishers []Publisher
}

// NewFanout creates a Fanout over the given publishers.
func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

// Publish forwards the event to all publishers.
func (f *Fanout) Publish(ctx context.Context, event Event) {
	for _, publisher := range f.publishers {
		publisher.Publish(ctx, event)
	}
}

package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/clock"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "seat-map:"

// Channel is the pub/sub channel live viewers of a seat map subscribe to.
func Channel(mapID uuid.UUID) string {
	return channelPrefix + mapID.String()
}

// RedisNotifier pushes seat map events to Redis pub/sub, one channel per map.
type RedisNotifier struct {
	client redis.UniversalClient
	clock  clock.Clock
}

func NewRedisNotifier(client redis.UniversalClient, clk clock.Clock) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		clock:  clk,
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, events ...domain.Event) error {
	now := n.clock.Now()

	for _, e := range events {
		envelope, err := domain.NewEnvelope(e, now)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.EventType(), err)
		}

		payload, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.EventType(), err)
		}

		err = n.client.Publish(ctx, Channel(e.AggregateID()), payload).Err()
		if err != nil {
			return fmt.Errorf("publish %s: %w", e.EventType(), err)
		}
	}

	return nil
}

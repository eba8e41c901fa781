package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/pkg/logger"
)

const DefaultRedisChannel = "storefront:catalog-events"

// RedisPublisher forwards every event as an Envelope to a Redis pub/sub
// channel. Publish failures are logged and dropped.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewRedisPublisher(client *redis.Client, channel string, log *zap.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
		log:     logger.OrNop(log).With(zap.String("component", "redis-events")),
		now:     time.Now,
	}
}

func (p *RedisPublisher) Handle(ev Event) {
	b, err := json.Marshal(NewEnvelope(ev, p.now()))
	if err != nil {
		p.log.Error("marshal envelope", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, b).Err(); err != nil {
		p.log.Warn("publish event failed",
			zap.String("channel", p.channel),
			zap.String("event", string(ev.Kind())),
			zap.Error(err),
		)
	}
}

package publisher

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher appends records to a single Redis stream, trimming it
// approximately to the configured maximum length on every add.
type RedisPublisher struct {
	client *redis.Client
	ctx    context.Context
	stream string
	maxLen int64
}

// NewRedisPublisher creates a stream publisher.
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string, maxLen int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client: client,
		ctx:    ctx,
		stream: stream,
		maxLen: int64(maxLen),
	}
}

// Publish appends one record to the stream keyed by its source.
func (p *RedisPublisher) Publish(source string, record []byte) error {
	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"source": source,
			"record": string(record),
		},
	}).Err()
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes events on a Redis pub/sub channel. Each batch is one
// pipeline, so a run costs a single round trip.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisSink creates a sink publishing on channel; an empty channel means DefaultChannel
func NewRedisSink(client redis.UniversalClient, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{client: client, channel: channel}
}

// Channel returns the channel name events are published on
func (s *RedisSink) Channel() string {
	return s.channel
}

func (s *RedisSink) Open(ctx context.Context) (Batch, error) {
	return &redisBatch{pipe: s.client.Pipeline(), channel: s.channel}, nil
}

type redisBatch struct {
	pipe    redis.Pipeliner
	channel string
}

func (b *redisBatch) Emit(ctx context.Context, e Event) error {
	payload, err := e.Encode()
	if err != nil {
		return err
	}
	b.pipe.Publish(ctx, b.channel, payload)
	return nil
}

func (b *redisBatch) Discard() {
	b.pipe.Discard()
}

func (b *redisBatch) Close(ctx context.Context) error {
	if b.pipe.Len() == 0 {
		return nil
	}
	_, err := b.pipe.Exec(ctx)
	return err
}

package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// RedisStreamPublisher appends msgpack-encoded bid events to a Redis stream
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher writing to stream. A positive maxLen caps the
// stream length approximately.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

func (p *RedisStreamPublisher) Name() string { return "redis-stream" }

// Publish appends event to the stream under the "data" field
func (p *RedisStreamPublisher) Publish(ctx context.Context, event BidAcceptedEvent) error {
	const op = "events.RedisStreamPublisher.Publish"

	args, err := p.xaddArgs(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%s: failed to append to stream %s: %w", op, p.stream, err)
	}
	return nil
}

func (p *RedisStreamPublisher) xaddArgs(event BidAcceptedEvent) (*redis.XAddArgs, error) {
	payload, err := msgpack.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", event.EventID, err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"data": string(payload)},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return args, nil
}

// Close closes the underlying client
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}

// DecodeBidAcceptedEvent decodes the "data" field of a stream entry
func DecodeBidAcceptedEvent(data string) (BidAcceptedEvent, error) {
	var event BidAcceptedEvent
	if err := msgpack.Unmarshal([]byte(data), &event); err != nil {
		return BidAcceptedEvent{}, fmt.Errorf("failed to decode bid event: %w", err)
	}
	return event, nil
}

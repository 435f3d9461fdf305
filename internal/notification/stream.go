package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/invoice_pool/internal/host"
)

// DefaultStream is the Redis stream events are appended to when none is configured.
const DefaultStream = "contract-events"

// StreamSink appends committed events to a Redis stream so other services
// can consume them with XREAD or consumer groups.
type StreamSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewStreamSink builds a sink writing to stream. maxLen > 0 caps the stream
// approximately.
func NewStreamSink(client redis.UniversalClient, stream string, maxLen int64) *StreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends all events in one pipeline, preserving their order.
func (s *StreamSink) Publish(ctx context.Context, events []host.Event) error {
	if len(events) == 0 {
		return nil
	}
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, ev := range events {
			args := &redis.XAddArgs{
				Stream: s.stream,
				Values: map[string]any{
					"contract":  ev.Contract.String(),
					"topic":     ev.Topic,
					"principal": ev.Principal.String(),
					"data":      ev.Data,
					"call_id":   ev.CallID,
					"at":        ev.At.UTC().Format(time.RFC3339Nano),
				},
			}
			if s.maxLen > 0 {
				args.MaxLen = s.maxLen
				args.Approx = true
			}
			pipe.XAdd(ctx, args)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish to stream %s: %w", s.stream, err)
	}
	return nil
}

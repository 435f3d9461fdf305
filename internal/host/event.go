package host

import (
	"context"
	"time"
)

// Event is a notification emitted by a committed call, published under the
// topic tuple (Topic, Principal) with Data as payload.
type Event struct {
	Contract  Principal
	Topic     string
	Principal Principal
	Data      string
	CallID    string
	At        time.Time
}

// EventSink delivers committed events to downstream consumers.
type EventSink interface {
	Publish(ctx context.Context, events []Event) error
}

// DiscardSink drops every event.
type DiscardSink struct{}

// Publish implements EventSink.
func (DiscardSink) Publish(context.Context, []Event) error { return nil }

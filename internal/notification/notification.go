package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/congo-pay/invoice_pool/internal/host"
)

// LoggerSink writes committed contract events to the structured logger.
type LoggerSink struct {
	logger *slog.Logger
}

// NewLoggerSink constructs a logging event sink.
func NewLoggerSink(logger *slog.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Publish writes each event as one log record.
func (s *LoggerSink) Publish(ctx context.Context, events []host.Event) error {
	if s == nil || s.logger == nil {
		return nil
	}
	for _, ev := range events {
		s.logger.InfoContext(ctx, "contract event",
			slog.String("contract", ev.Contract.String()),
			slog.String("topic", ev.Topic),
			slog.String("principal", ev.Principal.String()),
			slog.String("data", ev.Data),
			slog.String("call_id", ev.CallID),
		)
	}
	return nil
}

// Fanout publishes to every sink and joins their errors.
type Fanout []host.EventSink

// Publish implements host.EventSink.
func (f Fanout) Publish(ctx context.Context, events []host.Event) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package approval

import (
	"context"
	"log/slog"

	"github.com/viant/homeservice/service/messaging"
)

// EventHandler processes one event; an error nacks the message.
type EventHandler func(ctx context.Context, event *Event) error

// Listen starts a goroutine consuming queue with handler. It returns stop() –
// call it (or cancel ctx) to exit.
func Listen(ctx context.Context, queue messaging.Queue[Event], handler EventHandler) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			message, err := queue.Consume(ctx)
			if err != nil {
				return
			}
			if err = handler(ctx, message.T()); err != nil {
				_ = message.Nack(err)
				continue
			}
			_ = message.Ack()
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// LogEvents returns a handler logging decision events.
func LogEvents(logger *slog.Logger) EventHandler {
	return func(_ context.Context, event *Event) error {
		if decided, ok := event.Data.(*Decided); ok {
			logger.Info("decision event", "topic", event.Topic, "requestId", decided.RequestID,
				"status", decided.Status, "path", decided.Path, "processedBy", decided.ProcessedBy)
			return nil
		}
		logger.Info("event", "topic", event.Topic)
		return nil
	}
}

package messaging

import (
	"fmt"
	"log/slog"
)

// Handler receives every message published on a bus. Subscriptions
// implement it; filtering and buffering are the handler's concern, the bus
// only fans out.
type Handler interface {
	// HandleMessage processes one published message. Errors are invariant
	// violations and propagate to the publisher.
	HandleMessage(msg *Message) error

	// EpochFinished notifies the handler that an epoch boundary passed.
	EpochFinished(epoch int) error
}

// Bus is the explicit in-process registry connecting one producer to its
// subscriptions. It replaces any notion of a global default bus: callers
// construct a Bus at startup, register subscriptions on it, and tear it
// down with the process; tests build independent instances for isolation.
//
// Delivery is fully synchronous: Publish returns only after every handler
// has processed the message, and the first handler error aborts the
// fan-out. The bus is driven by a single producer goroutine and does not
// lock its handler list; only the diagnostic counters are atomic.
type Bus struct {
	handlers []Handler
	metrics  *Metrics
	logger   *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger for bus lifecycle events.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		metrics: NewMetrics(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for all subsequent publishes. Registering
// the same handler twice is an error; a handler's buffering state must not
// receive each message more than once.
func (b *Bus) Subscribe(handler Handler) error {
	for _, h := range b.handlers {
		if h == handler {
			return fmt.Errorf("handler already subscribed")
		}
	}
	b.handlers = append(b.handlers, handler)
	b.metrics.RecordSubscription(1)

	b.logger.Debug(
		"subscription registered",
		slog.Int("active", len(b.handlers)),
	)
	return nil
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(handler Handler) error {
	for i, h := range b.handlers {
		if h == handler {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			b.metrics.RecordSubscription(-1)
			b.logger.Debug(
				"subscription removed",
				slog.Int("active", len(b.handlers)),
			)
			return nil
		}
	}
	return fmt.Errorf("handler not subscribed")
}

// ActiveSubscriptions returns the number of registered handlers. Producers
// use it to skip payload construction entirely when nobody listens.
func (b *Bus) ActiveSubscriptions() int {
	return len(b.handlers)
}

// Publish fans msg out to every registered handler in registration order.
// The first handler error aborts the fan-out and propagates to the caller:
// handler errors are producer-protocol violations that tests and callers
// must see deterministically.
func (b *Bus) Publish(msg *Message) error {
	b.metrics.RecordPublished(1)

	for _, h := range b.handlers {
		if err := h.HandleMessage(msg); err != nil {
			return fmt.Errorf("deliver %v: %w", msg, err)
		}
		b.metrics.RecordDelivery(1)
	}
	return nil
}

// EpochFinished notifies every handler of an epoch boundary.
func (b *Bus) EpochFinished(epoch int) error {
	for _, h := range b.handlers {
		if err := h.EpochFinished(epoch); err != nil {
			return fmt.Errorf("epoch %d notification: %w", epoch, err)
		}
	}

	b.logger.Debug(
		"epoch finished",
		slog.Int("epoch", epoch),
		slog.Int("subscriptions", len(b.handlers)),
	)
	return nil
}

// Metrics returns a snapshot of bus counters.
func (b *Bus) Metrics() MetricsSnapshot {
	return b.metrics.Snapshot()
}

package chat

import (
	"errors"
	"log/slog"

	"github.com/michalij0/chat/internal/chat/broker"
)

// BrokerBuilder - helps to build custom broker.Broker wired with server event queue and logger.
type BrokerBuilder func(events chan<- broker.Event, logger *slog.Logger) (*broker.Broker, error)

// DefaultBroker - returns builder which requires event queue to build broker.Broker.
// Given options are applied after the required ones.
func DefaultBroker(options ...broker.Option) BrokerBuilder {
	return func(events chan<- broker.Event, logger *slog.Logger) (*broker.Broker, error) {
		if events == nil {
			return nil, errors.New("chat.DefaultBroker: broker.Event chan is required")
		}
		required := []broker.Option{broker.WithEvents(events)}
		if logger != nil {
			required = append(required, broker.WithLogger(logger))
		}
		return broker.New(append(required, options...)...)
	}
}

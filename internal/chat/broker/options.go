package broker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/michalij0/chat/internal/chat/message"
	"github.com/michalij0/chat/internal/chat/uid"
)

// WithEvents - attach channel to be notified for incoming messages and partings.
// Note, if Broker is used without events channel it can only to send outgoing messages.
func WithEvents(events chan<- Event) Option {
	return func(b *Broker) error {
		if b.events != nil {
			return errors.New("broker.WithEvents: events channel already set up")
		}
		b.events = events
		return nil
	}
}

// WithIdentifier - overwrites default client identifier generator.
func WithIdentifier(identify uid.Generator) Option {
	return func(b *Broker) error {
		if identify == nil {
			return errors.New("broker.WithIdentifier: generator is nil")
		}
		b.identify = identify
		return nil
	}
}

// WithWriteTimeout - overwrites default write timeout of connections.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(b *Broker) error {
		if timeout <= 0 {
			return fmt.Errorf("broker.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		b.writeTimeout = timeout
		return nil
	}
}

// WithReadBuffer - overwrites default size of single read (max line length for line framing).
func WithReadBuffer(size int) Option {
	return func(b *Broker) error {
		if size < 16 {
			return fmt.Errorf("broker.WithReadBuffer: invalid size (%d), must be at least 16", size)
		}
		b.bufSize = size
		return nil
	}
}

// WithFraming - sets how inbound stream is split into messages.
func WithFraming(f message.Framing) Option {
	return func(b *Broker) error {
		if f != message.FramingChunk && f != message.FramingLine {
			return fmt.Errorf("broker.WithFraming: invalid framing (%d)", f)
		}
		b.framing = f
		return nil
	}
}

// WithLogger - sets logger for connection I/O failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) error {
		if logger == nil {
			return errors.New("broker.WithLogger: logger is nil")
		}
		b.logger = logger
		return nil
	}
}

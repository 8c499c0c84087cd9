package chat

import (
	"errors"
	"fmt"
	"log/slog"
)

// Option - configures Server.
type Option func(s *Server) error

func setup(s *Server, options ...Option) error {
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger - sets logger for server and its broker.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("chat.WithLogger: logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// WithMessageHistory - keeps relayed messages for operator "recent" command.
func WithMessageHistory(h MessageHistory) Option {
	return func(s *Server) error {
		if h == nil {
			return errors.New("chat.WithMessageHistory: history is nil")
		}
		s.history = h
		return nil
	}
}

// WithColor - wraps announcements into ANSI terminal colors.
func WithColor(enabled bool) Option {
	return func(s *Server) error {
		s.color = enabled
		return nil
	}
}

// WithEventQueue - overwrites size of the reactor event queue.
func WithEventQueue(size int) Option {
	return func(s *Server) error {
		if size < 1 {
			return fmt.Errorf("chat.WithEventQueue: invalid size (%d)", size)
		}
		s.queueSize = size
		return nil
	}
}

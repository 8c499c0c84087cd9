package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/michalij0/chat/internal/chat/broker"
	"github.com/michalij0/chat/pkg/background"
)

// ErrServerClosed - returns by Serve if server has been shut down before call.
var ErrServerClosed = errors.New("chat.Server: closed")

// Server - represents chat server over any net.Listener implementation.
//
// A single reactor goroutine consumes accept, message and part events in arrival order.
// Every event which was already queued when the reactor woke up is handled
// before it waits again. Operator commands run on the caller's goroutine and share
// the broker registry with the reactor.
type Server struct {
	scope *background.Scope

	// mu orders Serve against Shutdown, so queue is drained only after all acceptors have returned
	mu        sync.Mutex
	acceptors *background.Scope

	events    chan broker.Event
	queueSize int
	broker    *broker.Broker

	logger  *slog.Logger
	history MessageHistory
	color   bool
}

// NewServer - creates new chat server which ready to serve several network listeners.
func NewServer(buildBroker BrokerBuilder, options ...Option) (*Server, error) {
	if buildBroker == nil {
		return nil, errors.New("chat.NewServer: required chat.BrokerBuilder is nil")
	}
	s := &Server{
		queueSize: 64,
		logger:    discardLogger(),
		history:   nopHistory{},
	}
	if err := setup(s, options...); err != nil {
		return nil, err
	}

	s.events = make(chan broker.Event, s.queueSize)
	b, err := buildBroker(s.events, s.logger)
	if err != nil {
		return nil, fmt.Errorf("chat.NewServer: can't build broker: %w", err)
	}
	s.broker = b

	s.scope = background.NewScope(context.Background())
	s.acceptors = background.NewScope(context.Background())
	s.scope.Go(s.run)
	return s, nil
}

// Serve - accepts connections from listener and passes them into reactor.
// Serve blocks until server is shut down (returns nil) or listener is closed outside.
// The listener is closed on return.
func (s *Server) Serve(listener net.Listener) error {
	if listener == nil {
		return errors.New("chat.Server.Serve: listener is nil")
	}
	ctx := s.scope.Context()
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	s.acceptors.Add(1)
	s.mu.Unlock()
	defer s.acceptors.Done()

	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer func() {
		if stop() {
			listener.Close()
		}
	}()

	s.logger.Info("serving", slog.String("listener", formatAddress(listener.Addr())))
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("chat.Server.Serve: %w", err)
			}
			logWarn(s.logger, "accept failed", err, slog.String("listener", formatAddress(listener.Addr())))
			time.Sleep(10 * time.Millisecond)
			continue
		}

		select {
		case s.events <- broker.AcceptEvent{NetEvent: broker.NetEvent{Conn: conn, OriginTime: time.Now().UTC()}}:
		case <-ctx.Done():
			conn.Close()
			return nil
		}
	}
}

// Shutdown - stops server with the specified timeout and returns stopping duration.
// Listeners are closed, clients are notified and disconnected.
// Note, the timeout is used for the reactor, the listeners and the broker in turn.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	s.mu.Lock()
	if s.scope.Expired() {
		s.mu.Unlock()
		return 0
	}
	from := time.Now()
	s.scope.Cancel()
	s.mu.Unlock()

	if !s.scope.Wait(timeout) {
		s.logger.Warn("reactor stop timed out", slog.Duration("timeout", timeout))
	}
	if !s.acceptors.Wait(timeout) {
		s.logger.Warn("listeners stop timed out", slog.Duration("timeout", timeout))
	}

	s.broker.Broadcast(nil, s.operatorMessage("shutting down, bye"))
	s.broker.Quit(timeout)
	s.discardQueued()

	return time.Since(from)
}

// Len - returns num of connected clients.
func (s *Server) Len() int {
	return s.broker.Len()
}

func (s *Server) run(ctx context.Context) {
	for {
		select {
		case e := <-s.events:
			s.round(e)
		case <-ctx.Done():
			return
		}
	}
}

// round - handles the event and all events which were ready together with it.
func (s *Server) round(first broker.Event) {
	ready := len(s.events)
	s.dispatch(first)
	for i := 0; i < ready; i++ {
		s.dispatch(<-s.events)
	}
}

func (s *Server) dispatch(e broker.Event) {
	switch e := e.(type) {
	case broker.AcceptEvent:
		s.handleAccept(e)
	case broker.MessageEvent:
		s.handleMessage(e)
	case broker.PartEvent:
		s.handlePart(e)
	default:
		s.logger.Warn("unexpected event", slog.String("type", fmt.Sprintf("%T", e)))
	}
}

func (s *Server) handleAccept(e broker.AcceptEvent) {
	conn := e.Conn
	entry, err := s.broker.KeepConnection(conn)
	if err != nil {
		logWarn(s.logger, "can't keep connection", err, slog.String("addr", formatAddress(conn.RemoteAddr())))
		if !errors.Is(err, broker.ErrConnKept) {
			conn.Close()
		}
		return
	}

	log := s.logger.With(clientAttr(entry))
	if err := s.broker.SendMessage(conn, welcomeMessage(entry.UID)); err != nil {
		logWarn(log, "welcome failed", err)
		s.broker.Drop(conn)
		return
	}
	log.Info("client joined")
	s.broker.Broadcast(nil, s.joinedMessage(entry.UID))
}

func (s *Server) handleMessage(e broker.MessageEvent) {
	entry, ok := s.broker.Lookup(e.Conn)
	if !ok {
		// already kicked or dropped, late read
		return
	}

	log := s.logger.With(clientAttr(entry))
	log.Info("message", slog.String("text", e.Message))
	if err := s.broker.SendMessage(e.Conn, echoMessage(e.Message)); err != nil {
		logWarn(log, "echo failed", err)
	}
	s.history.Push(formatHistory(e.OriginTime.Local(), entry.UID, e.Message))
	s.broker.Broadcast(e.Conn, relayMessage(entry.UID, e.Message))
}

func (s *Server) handlePart(e broker.PartEvent) {
	entry, ok := s.broker.Drop(e.Conn)
	if !ok {
		return
	}

	log := s.logger.With(clientAttr(entry))
	if e.Action == broker.PartActionLeft {
		log.Info("client left")
	} else {
		logWarn(log, "client lost", e.Err, slog.String("action", e.Action.String()))
	}
	s.broker.Broadcast(nil, s.leftMessage(entry.UID))
}

// discardQueued - closes accepted connections which the reactor has not handled.
func (s *Server) discardQueued() {
	for {
		select {
		case e := <-s.events:
			if a, ok := e.(broker.AcceptEvent); ok {
				a.Conn.Close()
			}
		default:
			return
		}
	}
}


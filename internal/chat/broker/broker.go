package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/michalij0/chat/internal/chat/message"
	"github.com/michalij0/chat/internal/chat/uid"
	"github.com/michalij0/chat/pkg/background"
)

// Broker - chat connections keeper and message router.
type Broker struct {
	writeTimeout time.Duration
	bufSize      int
	framing      message.Framing
	identify     uid.Generator
	events       chan<- Event
	logger       *slog.Logger

	// mu orders KeepConnection against Quit, so no reader is started after Quit has begun to wait.
	mu    sync.Mutex
	scope *background.Scope

	clients *registry
}

// Option - configures Broker.
type Option func(b *Broker) error

func setup(b *Broker, options ...Option) error {
	if b == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(b); err != nil {
			return err
		}
	}
	return nil
}

// New - builds Broker with needed options.
func New(options ...Option) (*Broker, error) {
	b := &Broker{
		writeTimeout: 10 * time.Second,
		bufSize:      1024,
		framing:      message.FramingChunk,
		identify:     uid.Generate,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		scope:        background.NewScope(context.Background()),
		clients:      newRegistry(),
	}

	if err := setup(b, options...); err != nil {
		b.scope.Cancel()
		return nil, err
	}

	return b, nil
}

// Quit - stops accepting connections, closes all kept connections and waits their readers will stop.
// Returns duration of time spent for quit. This time is about the given timeout at most.
func (b *Broker) Quit(timeout time.Duration) time.Duration {
	b.mu.Lock()
	if b.scope.Expired() {
		b.mu.Unlock()
		return 0
	}
	from := time.Now()
	b.scope.Cancel()
	b.mu.Unlock()

	for _, conn := range b.clients.conns() {
		b.Drop(conn)
	}
	if !b.scope.Wait(timeout) {
		b.logger.Warn("broker quit timed out", slog.Duration("timeout", timeout))
	}
	return time.Since(from)
}

// KeepConnection - registers new net connection under generated identifier
// and starts in background a reader which reports inbound messages and parting.
func (b *Broker) KeepConnection(conn net.Conn) (Entry, error) {
	if conn == nil {
		return Entry{}, ErrNilConn
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scope.Expired() {
		return Entry{}, ErrUnderStopCondition
	}
	if _, ok := b.clients.get(conn); ok {
		return Entry{}, ErrConnKept
	}

	addr := remoteAddr(conn)
	if prev, ok := b.clients.uidByAddr(addr); ok {
		b.logger.Debug("peer address is shared", slog.String("addr", addr), slog.String("uid", prev))
	}
	e := Entry{
		UID:    b.identify(addr),
		Addr:   addr,
		Handle: uuid.New(),
	}
	if !b.clients.add(conn, e) {
		return Entry{}, ErrConnKept
	}

	b.scope.Go(func(ctx context.Context) {
		b.maintainInbox(ctx, conn)
	})

	return e, nil
}

// Lookup - returns registry entry of the connection.
func (b *Broker) Lookup(conn net.Conn) (Entry, bool) {
	return b.clients.get(conn)
}

// Find - returns first kept connection with given identifier.
func (b *Broker) Find(id string) (net.Conn, Entry, bool) {
	return b.clients.find(id)
}

// List - returns snapshot of registry entries in no particular order.
func (b *Broker) List() []Entry {
	return b.clients.entries()
}

// Len - returns num of kept connections.
func (b *Broker) Len() int {
	return b.clients.len()
}

// Unregister - removes connection from registry without closing it.
// Only one of concurrent calls for the same connection gets ok.
func (b *Broker) Unregister(conn net.Conn) (Entry, bool) {
	return b.clients.delete(conn)
}

// Drop - removes connection from registry and closes it.
// Connection is closed even if it is not kept, ok reports whether it was.
func (b *Broker) Drop(conn net.Conn) (Entry, bool) {
	e, ok := b.clients.delete(conn)
	if err := conn.Close(); err != nil && ok {
		b.logger.Debug("close connection", slog.String("uid", e.UID), slog.Any("err", err))
	}
	return e, ok
}

// SendMessage - writes message into connection as is.
func (b *Broker) SendMessage(conn net.Conn, msg string) error {
	if conn == nil {
		return fmt.Errorf("broker.SendMessage: %w", ErrNilConn)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
		return fmt.Errorf("broker.SendMessage: %w", err)
	}
	if _, err := io.WriteString(conn, msg); err != nil {
		return fmt.Errorf("broker.SendMessage: %w", err)
	}
	return nil
}

// Broadcast - sends a message to all kept connections except the excluded one (if not nil)
// and returns num of successful deliveries. Delivery failures are logged only.
// Each connection is written in its own goroutine, the call returns when all writes are done.
func (b *Broker) Broadcast(exclude net.Conn, msg string) int {
	wg := sync.WaitGroup{}
	delivered := atomic.Int32{}
	for conn, e := range b.clients.snapshot() {
		if exclude != nil && conn == exclude {
			continue
		}
		wg.Add(1)
		go func(conn net.Conn, e Entry) {
			defer wg.Done()
			if err := b.SendMessage(conn, msg); err != nil {
				b.logger.Warn(
					"broadcast delivery failed",
					slog.String("uid", e.UID),
					slog.String("addr", e.Addr),
					slog.Any("err", err),
				)
				return
			}
			delivered.Add(1)
		}(conn, e)
	}
	wg.Wait()
	return int(delivered.Load())
}

func (b *Broker) maintainInbox(ctx context.Context, conn net.Conn) {
	reader := message.NewReader(conn, b.framing, b.bufSize)
	for {
		p, err := reader.Next()
		if len(p) > 0 {
			b.notifyInboundMessage(ctx, conn, message.Text(p))
		}
		if err == nil {
			continue
		}
		b.notify(ctx, PartEvent{NetEvent{conn, time.Now().UTC()}, partAction(err), err})
		return
	}
}

// notifyInboundMessage - propagates inbound message, whitespace-only text becomes empty message.
func (b *Broker) notifyInboundMessage(ctx context.Context, conn net.Conn, text string) {
	b.notify(ctx, MessageEvent{NetEvent{conn, time.Now().UTC()}, text})
}

func (b *Broker) notify(ctx context.Context, e Event) {
	if b.events == nil || ctx.Err() != nil {
		return
	}
	select {
	case b.events <- e:
	case <-ctx.Done():
	}
}

func partAction(err error) PartAction {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		return PartActionLeft
	case errors.As(err, &netErr) && netErr.Timeout():
		return PartActionTimeout
	default:
		return PartActionFailed
	}
}

func remoteAddr(conn net.Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

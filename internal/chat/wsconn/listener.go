// Package wsconn implements websocket gateway which presents upgraded HTTP requests
// as net.Conn instances accepted from a net.Listener.
package wsconn

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrListenerClosed - returns by Accept when listener is closed.
var ErrListenerClosed = fmt.Errorf("wsconn.Listener: %w", net.ErrClosed)

// Listener - accepts websocket connections upgraded by its ServeHTTP.
type Listener struct {
	addr     net.Addr
	upgrader websocket.Upgrader
	logger   *slog.Logger

	conns chan *Conn
	done  chan struct{}
	once  sync.Once

	// server - set when the listener owns the HTTP server
	server *http.Server
}

// Option - configures Listener.
type Option func(l *Listener) error

// WithLogger - sets logger for upgrade and HTTP failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) error {
		if logger == nil {
			return errors.New("wsconn.WithLogger: logger is nil")
		}
		l.logger = logger
		return nil
	}
}

// WithCheckOrigin - overwrites default same-origin policy of the upgrader.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(l *Listener) error {
		if check == nil {
			return errors.New("wsconn.WithCheckOrigin: check func is nil")
		}
		l.upgrader.CheckOrigin = check
		return nil
	}
}

// NewListener - creates listener which should be mounted as http.Handler.
// The addr is reported by Addr only.
func NewListener(addr net.Addr, options ...Option) (*Listener, error) {
	l := &Listener{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		conns:  make(chan *Conn),
		done:   make(chan struct{}),
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Listen - starts HTTP server on the TCP address and serves websocket upgrades on the path.
// Closing the listener stops the HTTP server.
func Listen(address, path string, options ...Option) (*Listener, error) {
	if path == "" {
		path = "/"
	}
	tcp, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("wsconn.Listen: %w", err)
	}
	l, err := NewListener(tcp.Addr(), options...)
	if err != nil {
		tcp.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(path, l)
	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := l.server.Serve(tcp); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Warn("websocket gateway stopped", slog.Any("err", err))
		}
	}()
	return l, nil
}

// ServeHTTP - upgrades request and hands the connection over to Accept.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-l.done:
		http.Error(w, "gateway is closed", http.StatusServiceUnavailable)
		return
	default:
	}

	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has replied already
		l.logger.Debug("websocket upgrade failed", slog.String("addr", r.RemoteAddr), slog.Any("err", err))
		return
	}
	c := newConn(ws)
	select {
	case l.conns <- c:
	case <-l.done:
		c.Close()
	}
}

// Accept - waits for the next upgraded connection.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, ErrListenerClosed
	}
}

// Close - stops accepting, pending upgrades are closed.
// Connections returned by Accept are not affected.
func (l *Listener) Close() error {
	err := ErrListenerClosed
	l.once.Do(func() {
		close(l.done)
		err = nil
		if l.server != nil {
			err = l.server.Close()
		}
	})
	return err
}

// Addr - returns address the gateway is served on.
func (l *Listener) Addr() net.Addr {
	return l.addr
}

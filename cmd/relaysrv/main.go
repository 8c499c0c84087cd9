package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/michalij0/chat/internal/chat"
	"github.com/michalij0/chat/internal/chat/broker"
	"github.com/michalij0/chat/internal/chat/history"
	"github.com/michalij0/chat/internal/chat/wsconn"
)

func newLogger() *slog.Logger {
	options := &slog.HandlerOptions{Level: Config.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, options)
	if Config.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler).With(slog.String("app", BinaryName), slog.String("version", Version))
}

func main() {
	logger := newLogger()
	logger.Info("started", slog.Any("config", Config))

	node := net.JoinHostPort(Config.IPAddress, fmt.Sprintf("%d", Config.Port))
	listener, err := net.Listen("tcp", node)
	if err != nil {
		logger.Error("unable to listen TCP", slog.Any("err", err))
		os.Exit(1)
	}

	stack, err := history.NewStack(Config.History)
	if err != nil {
		logger.Error("invalid config", slog.Any("err", err))
		listener.Close()
		os.Exit(1)
	}

	server, err := chat.NewServer(
		chat.DefaultBroker(
			broker.WithFraming(Config.Framing),
			broker.WithReadBuffer(Config.ReadBuffer),
			broker.WithWriteTimeout(Config.WriteTimeout),
		),
		chat.WithLogger(logger),
		chat.WithMessageHistory(stack),
		chat.WithColor(Config.Color),
	)
	if err != nil {
		logger.Error("can't start relay server", slog.Any("err", err))
		listener.Close()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go serve(ctx, stop, logger, server, listener)

	if Config.WebsocketAddress != "" {
		gateway, err := wsconn.Listen(Config.WebsocketAddress, Config.WebsocketPath, wsconn.WithLogger(logger))
		if err != nil {
			logger.Error("unable to start websocket gateway", slog.Any("err", err))
			server.Shutdown(time.Second)
			os.Exit(1)
		}
		go serve(ctx, stop, logger, server, gateway)
	}

	go func() {
		if err := server.RunConsole(ctx, os.Stdin, os.Stdout); err != nil {
			logger.Warn("operator console stopped", slog.Any("err", err))
		}
	}()
	logger.Info("relay server has started")

	<-ctx.Done()
	logger.Info("got stop signal")
	logger.Info("relay server stopped, bye", slog.Duration("elapsed", server.Shutdown(10*time.Second)))
}

// serve - stops the app when listener fails outside of shutdown
func serve(ctx context.Context, stop context.CancelFunc, logger *slog.Logger, server *chat.Server, listener net.Listener) {
	if err := server.Serve(listener); err != nil && ctx.Err() == nil {
		logger.Error("listener failed", slog.Any("err", err))
		stop()
	}
}

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/michalij0/chat/internal/chat/message"
	"github.com/michalij0/chat/pkg/semver"
)

type (
	// Configuration - server configuration
	Configuration struct {
		// IPAddress - bind the address
		IPAddress string
		// Port - bind the port
		Port uint
		// WebsocketAddress - bind address of websocket gateway, gateway is disabled when empty
		WebsocketAddress string
		// WebsocketPath - URL path of websocket gateway
		WebsocketPath string
		// Framing - how inbound bytes are split into messages
		Framing message.Framing
		// ReadBuffer - max size of single inbound message
		ReadBuffer int
		// WriteTimeout - deadline of single outbound message
		WriteTimeout time.Duration
		// Color - wrap announcements into ANSI colors
		Color bool
		// History - num of relayed messages kept for operator
		History int
		// LogLevel - min level of log records
		LogLevel slog.Level
		// LogJSON - use JSON log handler instead of text one
		LogJSON bool
	}
)

var (
	// Config - current configuration of the server
	Config = Configuration{
		IPAddress:     "",
		Port:          8888,
		WebsocketPath: "/ws",
		Framing:       message.FramingChunk,
		ReadBuffer:    1024,
		WriteTimeout:  10 * time.Second,
		Color:         true,
		History:       50,
		LogLevel:      slog.LevelInfo,
	}

	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	// version - overwritten at build time with -ldflags "-X main.version=..."
	version = "1.0.0"

	// Version - app version fingerprint
	Version = semver.MustParse(version).String()
)

func init() {
	out := flag.CommandLine.Output()
	printUsage := func() {
		fmt.Fprintf(out, "Launch text broadcast relay over TCP\n\n\t%s [options]\nOptions:\n\n", BinaryName)
		flag.PrintDefaults()
		fmt.Fprint(out, "\n")
	}
	printError := func(msg string) {
		fmt.Fprintf(out, "%s (v%s) error:\n\n\t%s\n", BinaryName, Version, msg)
	}

	help, printVersion := false, false
	flag.BoolVar(&help, "help", false, "Print usage help")
	flag.BoolVar(&printVersion, "version", false, "Print version")
	flag.StringVar(&Config.IPAddress, "ip", Config.IPAddress, "Listen address")
	flag.UintVar(&Config.Port, "port", Config.Port, "Listen port")
	flag.StringVar(&Config.WebsocketAddress, "ws", "", "Websocket gateway listen address, e.g. :8080 (disabled if empty)")
	flag.StringVar(&Config.WebsocketPath, "ws-path", Config.WebsocketPath, "Websocket gateway URL path")
	framing := Config.Framing.String()
	flag.StringVar(&framing, "framing", framing, "Inbound message framing: chunk (every read is a message) or line")
	flag.IntVar(&Config.ReadBuffer, "read-buffer", Config.ReadBuffer, "Max size of inbound message in bytes")
	writeTimeout := int(Config.WriteTimeout / time.Second)
	flag.IntVar(&writeTimeout, "write-timeout", writeTimeout, "Outbound message deadline in seconds")
	flag.BoolVar(&Config.Color, "color", Config.Color, "Wrap announcements into ANSI colors")
	flag.IntVar(&Config.History, "history", Config.History, "Num of relayed messages kept for operator 'recent' command")
	logLevel := Config.LogLevel.String()
	flag.StringVar(&logLevel, "log-level", logLevel, "Log level: debug, info, warn or error")
	flag.BoolVar(&Config.LogJSON, "log-json", false, "Write logs as JSON")

	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}
	if printVersion {
		fmt.Fprintln(out, BinaryName, Version)
		os.Exit(0)
	}

	if Config.Port > 65535 {
		printError("port value should be less or equal 65535")
		os.Exit(1)
	}
	f, err := message.ParseFraming(framing)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	Config.Framing = f
	if Config.ReadBuffer < 16 {
		printError("read-buffer value should be greater or equal 16")
		os.Exit(1)
	}
	if writeTimeout < 1 {
		printError("write-timeout value should be greater or equal 1")
		os.Exit(1)
	}
	Config.WriteTimeout = time.Duration(writeTimeout) * time.Second
	if Config.History < 1 {
		printError("history value should be greater or equal 1")
		os.Exit(1)
	}
	if err := Config.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	if Config.WebsocketAddress != "" && !strings.HasPrefix(Config.WebsocketPath, "/") {
		printError("ws-path value should start with /")
		os.Exit(1)
	}

	fmt.Fprint(out, "Relay server is launching, press Ctrl-C to stop...\n")
}

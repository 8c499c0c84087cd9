package chat

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/michalij0/chat/internal/chat/broker"
)

const (
	colorGreen  = "\x1b[32m"
	colorOrange = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorReset  = "\x1b[0m"
)

// welcomeMessage - sent once to accepted client.
func welcomeMessage(uid string) string {
	return fmt.Sprintf("Successfully connected to the chat\nYour UID: %s\n", uid)
}

// echoMessage - direct reply to the author of the message.
func echoMessage(text string) string {
	return "Me: " + text + "\n"
}

// relayMessage - the message as other clients see it.
func relayMessage(uid, text string) string {
	return uid + ": " + text + "\n"
}

// announce - formats server generated line, optionally styled for terminals.
func (s *Server) announce(color, body string) string {
	if s.color {
		return color + body + colorReset + "\n"
	}
	return body + "\n"
}

func (s *Server) joinedMessage(uid string) string {
	return s.announce(colorGreen, uid+" joined the chat.")
}

func (s *Server) leftMessage(uid string) string {
	return s.announce(colorOrange, uid+" left the chat.")
}

func (s *Server) kickedMessage(uid string) string {
	return s.announce(colorRed, uid+" was removed from the chat.")
}

func (s *Server) operatorMessage(body string) string {
	return s.announce(colorRed, "Server: "+body)
}

// formatHistory - formats relayed message for the operator history.
func formatHistory(t time.Time, author, body string) string {
	body = strings.TrimSuffix(body, "\n")
	return fmt.Sprintf("[%s] %s: %s", t.Format("15:04:05"), author, body)
}

// formatAddress - formats specified network address for logging purposes.
func formatAddress(a net.Addr) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", a.Network(), a.String())
}

// clientAttr - groups registry entry for structured logging.
func clientAttr(e broker.Entry) slog.Attr {
	return slog.Group("client",
		slog.String("uid", e.UID),
		slog.String("addr", e.Addr),
		slog.String("conn", e.Handle.String()),
	)
}

package broker

import (
	"net"
	"time"
)

// Event - readiness notification delivered to event consumer.
type Event interface {
	Origin() NetEvent
}

// NetEvent - base event related to network connection.
type NetEvent struct {
	Conn       net.Conn
	OriginTime time.Time
}

// Origin - implements Event.
func (e NetEvent) Origin() NetEvent {
	return e
}

// AcceptEvent - occurres when listener has accepted new connection which is not kept yet.
type AcceptEvent struct {
	NetEvent
}

// MessageEvent - occurres when message from the outside was arrived.
type MessageEvent struct {
	NetEvent
	Message string
}

// PartAction - describes the type of parting with client (connection).
type PartAction int

const (
	_ PartAction = iota
	// PartActionLeft - the parting is occurred due to connection was closed by peer.
	PartActionLeft
	// PartActionTimeout - the parting is occurred due to connection timeout.
	PartActionTimeout
	// PartActionFailed - the parting is occurred due to I/O error.
	PartActionFailed
)

func (a PartAction) String() string {
	switch a {
	case PartActionLeft:
		return "left"
	case PartActionTimeout:
		return "timeout"
	case PartActionFailed:
		return "failed"
	default:
		return "unknown part action"
	}
}

// PartEvent - occurres when reading from connection has stopped.
type PartEvent struct {
	NetEvent
	Action PartAction
	Err    error
}

package broker

import "errors"

var (
	// ErrUnderStopCondition - Broker is quitting and does not keep new connections.
	// The caller still owns such connection and must close it.
	ErrUnderStopCondition = errors.New("broker: quit in progress")

	// ErrConnKept - connection is registered already, the Broker owns it.
	ErrConnKept = errors.New("broker: connection is kept already")

	// ErrNilConn - returns for operations on nil connection.
	ErrNilConn = errors.New("broker: connection is nil")
)

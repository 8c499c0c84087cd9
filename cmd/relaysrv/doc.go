// Package `relaysrv` implements text broadcast relay server over TCP
// with optional websocket gateway and operator console on standard input.
//
// To compile relay server locally, run from package directory:
//
//	go install .
//
// Or quickly launch server with command:
//
//	go run . -port 8888
//
// Operator console commands:
//
//	list           print connected clients
//	kick <uid>     disconnect client
//	say <message>  send message to all clients
//	recent [n]     print latest relayed messages
//	help           print commands
package main

// Package transport implements the layered protocol stack from spec
// §4.5: a uniform Layer interface that TCP, TLS, WebSocket, and MQTT
// layers all implement, chained together so e.g. MQTT-over-WebSocket-
// over-TLS-over-TCP is just four Layer values wrapping one another.
package transport

import (
	"errors"
	"time"
)

// Errors classified per spec §7.
var (
	// ErrClosed marks a socket closed or EOF on a persistent stream.
	ErrClosed = errors.New("transport: closed")
	// ErrWouldBlock is returned (conceptually — callers see 0, nil) for a
	// transient non-blocking condition; kept as a sentinel for layers that
	// need to distinguish it explicitly (e.g. TLS handshake retry).
	ErrWouldBlock = errors.New("transport: would block")
	// ErrProtocolViolation marks malformed framing (bad MQTT return code,
	// WebSocket handshake mismatch, oversize frame, ...).
	ErrProtocolViolation = errors.New("transport: protocol violation")
	// ErrOversize marks a frame exceeding a hard size bound (WebSocket
	// payload > 16KiB).
	ErrOversize = errors.New("transport: oversize frame")
)

// Layer is the uniform interface every protocol-stack element
// implements (spec §4.5).
type Layer interface {
	Connect() error
	Disconnect()
	IsConnected() bool
	// Send writes buf, returning the number of bytes written. A transient
	// non-blocking condition returns (0, nil); a hard error returns
	// (0, err) and disconnects per the persistent/non-persistent policy
	// described in spec §4.5/§7.
	Send(buf []byte) (int, error)
	// Read reads into buf, blocking up to timeout. If waitAll is true it
	// keeps reading until buf is full, the timeout elapses, or an error
	// occurs; otherwise it returns as soon as any data is available.
	Read(buf []byte, timeout time.Duration, waitAll bool) (int, error)
}

// Hooks are the on_connect/on_disconnect propagation points from spec
// §4.5; every layer accepts them so the layer above is notified when the
// layer below changes state.
type Hooks struct {
	OnConnect    func()
	OnDisconnect func()
}

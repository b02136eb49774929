// Package transport provides the byte-duplex channels a control link can
// run over: a local serial port, a remote WebSocket leg, and the bridge
// server that joins the two across a network.
package transport

import "io"

// Conn is the channel contract the link layer depends on.
//
// Read is best-effort: it may return fewer bytes than requested, and it
// must return (0, nil) rather than block forever when no data arrives
// within the implementation's poll interval, so that callers can observe
// cancellation between attempts. Write blocks until the full buffer is
// handed to the underlying channel.
type Conn interface {
	io.ReadWriteCloser
}

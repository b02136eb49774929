package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// remoteConn adapts a WebSocket connection to the Conn contract. Frames
// travel as binary messages; a reader goroutine feeds an inbox channel so
// Read can poll with a timeout instead of blocking forever (gorilla read
// deadlines poison the connection, so they cannot be used for polling).
type remoteConn struct {
	ws      *websocket.Conn
	inbox   chan []byte
	pending []byte // unconsumed tail of the current message
	readErr error  // set before inbox is closed
}

// DialRemote connects to a bridge at the given WebSocket URL and returns
// the connection as a Conn.
func DialRemote(ctx context.Context, url string) (Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bridge %s: %w", url, err)
	}

	c := &remoteConn{
		ws:    ws,
		inbox: make(chan []byte, 16),
	}
	go c.readLoop()
	return c, nil
}

// readLoop moves inbound messages into the inbox until the socket fails or
// closes. The terminating error is published before the inbox is closed.
func (c *remoteConn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr = err
			close(c.inbox)
			return
		}
		c.inbox <- data
	}
}

// Read returns buffered bytes from the current message, or waits up to the
// poll timeout for the next one. A quiet link yields (0, nil).
func (c *remoteConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		select {
		case msg, ok := <-c.inbox:
			if !ok {
				return 0, fmt.Errorf("bridge connection lost: %w", c.readErr)
			}
			c.pending = msg
		case <-time.After(pollTimeout):
			return 0, nil
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write sends p as a single binary message.
func (c *remoteConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, fmt.Errorf("failed to write to bridge: %w", err)
	}
	return len(p), nil
}

// Close notifies the bridge and tears down the socket.
func (c *remoteConn) Close() error {
	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

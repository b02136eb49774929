package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/1ureka/rovlink/internal/util"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Bridge exposes a local serial Conn over WebSocket so a remote controller
// can drive the rover across a network. The protocol is stop-and-wait with
// a single caller, so the bridge accepts one client at a time; later
// connection attempts are refused until the current client disconnects.
type Bridge struct {
	conn     Conn
	listener net.Listener
	connCh   chan *websocket.Conn
}

// NewBridge creates a bridge in front of the given serial-side Conn.
func NewBridge(conn Conn) *Bridge {
	return &Bridge{
		conn:   conn,
		connCh: make(chan *websocket.Conn, 1),
	}
}

// Start begins listening on addr. Returns the bound address (useful when
// addr requests an ephemeral port).
func (b *Bridge) Start(addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start bridge listener: %w", err)
	}
	b.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWS)

	go func() {
		_ = http.Serve(listener, mux)
	}()

	return listener.Addr().String(), nil
}

func (b *Bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// Only one controller may hold the link.
	select {
	case b.connCh <- ws:
	default:
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "link busy"))
		ws.Close()
	}
}

// Serve accepts controllers one at a time and pumps bytes between the
// WebSocket and the serial side until ctx is cancelled.
func (b *Bridge) Serve(ctx context.Context) error {
	for {
		var ws *websocket.Conn
		select {
		case ws = <-b.connCh:
		case <-ctx.Done():
			return ctx.Err()
		}

		util.LogInfo("controller connected: %s", ws.RemoteAddr())
		b.pump(ctx, ws)
		ws.Close()
		util.LogInfo("controller disconnected: %s", ws.RemoteAddr())

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close shuts down the listener, refusing new controllers.
func (b *Bridge) Close() {
	if b.listener != nil {
		b.listener.Close()
	}
}

// pump copies bytes both ways until either side fails or ctx is cancelled.
func (b *Bridge) pump(ctx context.Context, ws *websocket.Conn) {
	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock the WebSocket read loop on cancellation.
	go func() {
		<-pumpCtx.Done()
		ws.Close()
	}()

	// Controller → rover.
	go func() {
		defer cancel()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if _, err := b.conn.Write(data); err != nil {
				util.LogError("serial write failed: %v", err)
				return
			}
		}
	}()

	// Rover → controller. The serial Conn polls, so cancellation is
	// observed between reads.
	buf := make([]byte, 256)
	for pumpCtx.Err() == nil {
		n, err := b.conn.Read(buf)
		if err != nil {
			util.LogError("serial read failed: %v", err)
			return
		}
		if n == 0 {
			continue
		}
		if err := ws.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
			return
		}
	}
}

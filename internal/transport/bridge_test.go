package transport

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// memConn stands in for the serial port: the test injects rover→host bytes
// through in and observes host→rover writes through out.
type memConn struct {
	in      chan []byte
	out     chan []byte
	pending []byte
}

func newMemConn() *memConn {
	return &memConn{
		in:  make(chan []byte, 16),
		out: make(chan []byte, 16),
	}
}

func (c *memConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		select {
		case b := <-c.in:
			c.pending = b
		case <-time.After(10 * time.Millisecond):
			return 0, nil
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *memConn) Write(p []byte) (int, error) {
	b := make([]byte, len(p))
	copy(b, p)
	c.out <- b
	return len(p), nil
}

func (c *memConn) Close() error { return nil }

// readFull polls a Conn until n bytes arrive or the deadline passes.
func readFull(t *testing.T, c Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, 0, n)
	chunk := make([]byte, n)
	deadline := time.Now().Add(2 * time.Second)
	for len(buf) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d of %d bytes", len(buf), n)
		}
		k, err := c.Read(chunk[:n-len(buf)])
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		buf = append(buf, chunk[:k]...)
	}
	return buf
}

// TestBridgeRoundTrip runs a real bridge on a loopback listener and checks
// that bytes flow both ways between a dialled remote Conn and the serial
// stand-in.
func TestBridgeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rover := newMemConn()
	bridge := NewBridge(rover)
	addr, err := bridge.Start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer bridge.Close()
	go bridge.Serve(ctx)

	conn, err := DialRemote(ctx, "ws://"+addr+"/ws")
	if err != nil {
		t.Fatalf("DialRemote failed: %v", err)
	}
	defer conn.Close()

	// Controller → rover.
	outbound := bytes.Repeat([]byte{0xAB, 0xCD}, 8)
	if _, err := conn.Write(outbound); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	select {
	case got := <-rover.out:
		if !bytes.Equal(got, outbound) {
			t.Errorf("rover received %x, want %x", got, outbound)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bytes never reached the serial side")
	}

	// Rover → controller, split across two chunks to exercise reassembly.
	inbound := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	rover.in <- inbound[:3]
	rover.in <- inbound[3:]

	got := readFull(t, conn, len(inbound))
	if !bytes.Equal(got, inbound) {
		t.Errorf("controller received %x, want %x", got, inbound)
	}
}

// TestRemoteReadQuietLink verifies the Conn contract on a silent bridge:
// Read returns (0, nil) rather than blocking.
func TestRemoteReadQuietLink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rover := newMemConn()
	bridge := NewBridge(rover)
	addr, err := bridge.Start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer bridge.Close()
	go bridge.Serve(ctx)

	conn, err := DialRemote(ctx, "ws://"+addr+"/ws")
	if err != nil {
		t.Fatalf("DialRemote failed: %v", err)
	}
	defer conn.Close()

	n, err := conn.Read(make([]byte, 16))
	if n != 0 || err != nil {
		t.Errorf("Read on quiet link: got (%d, %v), want (0, nil)", n, err)
	}
}

package app

import (
	"context"
	"testing"
	"time"

	"github.com/1ureka/rovlink/internal/input"
	"github.com/1ureka/rovlink/internal/link"
	"github.com/1ureka/rovlink/internal/protocol"
)

func TestDriveCommandMapping(t *testing.T) {
	testCases := []struct {
		name       string
		key        rune
		speed      uint32
		wantCmd    protocol.Command
		wantParams []uint32
		wantOK     bool
	}{
		{"w moves forward", 'w', 75, protocol.CmdForward, []uint32{driveDistanceCM, 75}, true},
		{"s moves backward", 's', 50, protocol.CmdReverse, []uint32{driveDistanceCM, 50}, true},
		{"a turns left", 'a', 100, protocol.CmdTurnLeft, []uint32{driveTurnDeg, 100}, true},
		{"d turns right", 'd', 50, protocol.CmdTurnRight, []uint32{driveTurnDeg, 50}, true},
		{"z stops with zero params", 'z', 100, protocol.CmdStop, nil, true},
		{"speed key maps to nothing", '2', 50, 0, nil, false},
		{"unknown key maps to nothing", 'x', 50, 0, nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, params, ok := driveCommand(tc.key, tc.speed)
			if ok != tc.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if cmd != tc.wantCmd {
				t.Errorf("command: got %s, want %s", cmd, tc.wantCmd)
			}
			if len(params) != len(tc.wantParams) {
				t.Fatalf("params: got %v, want %v", params, tc.wantParams)
			}
			for i := range params {
				if params[i] != tc.wantParams[i] {
					t.Errorf("params: got %v, want %v", params, tc.wantParams)
					break
				}
			}
		})
	}
}

// scriptConn doubles the transport: Read drains a scripted inbound stream,
// Write records outbound frames.
type scriptConn struct {
	inbound []byte
	writes  [][]byte
}

func (c *scriptConn) Read(p []byte) (int, error) {
	if len(c.inbound) == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, c.inbound)
	c.inbound = c.inbound[n:]
	return n, nil
}

func (c *scriptConn) Write(p []byte) (int, error) {
	frame := make([]byte, len(p))
	copy(frame, p)
	c.writes = append(c.writes, frame)
	return len(p), nil
}

func (c *scriptConn) Close() error { return nil }

func (c *scriptConn) queueAck() {
	frame := protocol.Encode(&protocol.Packet{
		Type:    protocol.TypeResponse,
		Command: uint8(protocol.RespOK),
	})
	c.inbound = append(c.inbound, frame...)
}

type fakeSource struct {
	ch chan input.Event
}

func (s *fakeSource) Events() <-chan input.Event { return s.ch }

// TestRunDriveSession walks one drive session end to end: handshake, a
// speed change, a move at the new speed, a stop, and quit.
func TestRunDriveSession(t *testing.T) {
	conn := &scriptConn{}
	conn.queueAck() // handshake
	conn.queueAck() // forward
	conn.queueAck() // stop

	src := &fakeSource{ch: make(chan input.Event, 8)}
	src.ch <- input.Event{Rune: '2'} // speed 75, no packet
	src.ch <- input.Event{Rune: 'w'}
	src.ch <- input.Event{Rune: 'z'}
	src.ch <- input.Event{Quit: true}

	if err := RunDrive(context.Background(), link.New(conn), src); err != nil {
		t.Fatalf("RunDrive failed: %v", err)
	}

	if len(conn.writes) != 3 {
		t.Fatalf("frames written: got %d, want 3 (hello, forward, stop)", len(conn.writes))
	}

	checks := []struct {
		wantType protocol.PacketType
		wantCmd  uint8
		wantP0   uint32
		wantP1   uint32
	}{
		{protocol.TypeHello, uint8(protocol.CmdStop), 0, 0},
		{protocol.TypeCommand, uint8(protocol.CmdForward), driveDistanceCM, 75},
		{protocol.TypeCommand, uint8(protocol.CmdStop), 0, 0},
	}

	for i, want := range checks {
		status, pkt := protocol.Decode(conn.writes[i])
		if status != protocol.StatusOK {
			t.Fatalf("frame %d does not decode: %s", i, status)
		}
		if pkt.Type != want.wantType || pkt.Command != want.wantCmd {
			t.Errorf("frame %d: got %s/%d, want %s/%d", i, pkt.Type, pkt.Command, want.wantType, want.wantCmd)
		}
		if pkt.Params[0] != want.wantP0 || pkt.Params[1] != want.wantP1 {
			t.Errorf("frame %d params: got %v, want [%d %d 0 ...]", i, pkt.Params, want.wantP0, want.wantP1)
		}
	}
}

// TestRunDriveCancellation verifies that an externally cancelled context
// terminates the loop cleanly.
func TestRunDriveCancellation(t *testing.T) {
	conn := &scriptConn{}
	conn.queueAck() // handshake

	src := &fakeSource{ch: make(chan input.Event)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunDrive(ctx, link.New(conn), src)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunDrive: got %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunDrive did not observe cancellation")
	}
}

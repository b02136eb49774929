// Package link implements the host side of the rover's stop-and-wait
// control protocol: one COMMAND in flight at a time, each send gated on the
// acknowledgment of the previous one.
package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/1ureka/rovlink/internal/protocol"
	"github.com/1ureka/rovlink/internal/transport"
	"github.com/1ureka/rovlink/internal/util"
)

// Sentinel errors callers can match with errors.Is.
var (
	// ErrGateClosed reports a send refused because the previous packet has
	// not been acknowledged yet. Recoverable: wait for a Receive, then retry.
	ErrGateClosed = errors.New("previous packet not acknowledged")

	// ErrBadFrame reports a received frame rejected for a bad magic marker.
	ErrBadFrame = errors.New("received bad packet from rover")

	// ErrBadChecksum reports a received frame rejected for a bad checksum.
	ErrBadChecksum = errors.New("received bad checksum from rover")
)

// Link owns one control session over a transport.Conn: the acknowledgment
// gate, the frame accumulation buffer, and nothing else. It is driven by a
// single logical thread and is not safe for concurrent use; cancellation is
// the only state observed from outside, via the contexts passed to Receive.
type Link struct {
	conn  transport.Conn
	acked bool   // acknowledgment gate: true when a new send is allowed
	buf   []byte // partial frame accumulated across Receive calls
}

// New creates a Link over conn. The gate starts open: the first send of a
// session is always allowed.
func New(conn transport.Conn) *Link {
	return &Link{
		conn:  conn,
		acked: true,
		buf:   make([]byte, 0, protocol.FrameSize),
	}
}

// Acknowledged reports whether the gate is open (no packet in flight).
func (l *Link) Acknowledged() bool {
	return l.acked
}

// Send builds a packet from the given type, command and params (zero-padded
// to the full param count), encodes it, and writes the frame.
//
// Send fails soft on the gate: if the previous packet is unacknowledged the
// call writes nothing, logs a warning, and returns ErrGateClosed. Any
// accepted send closes the gate; only a subsequent Receive that decodes a
// valid RESPONSE frame reopens it. There is no automatic retransmission.
func (l *Link) Send(t protocol.PacketType, cmd protocol.Command, params ...uint32) error {
	if !l.acked {
		util.LogWarning("cannot send packet: previous packet not acknowledged")
		util.Stats.AddGated()
		return ErrGateClosed
	}
	if len(params) > protocol.ParamCount {
		return fmt.Errorf("too many params: %d (max %d)", len(params), protocol.ParamCount)
	}

	l.acked = false
	p := &protocol.Packet{Type: t, Command: uint8(cmd)}
	copy(p.Params[:], params)

	frame := protocol.Encode(p)
	if _, err := l.conn.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	util.Stats.AddSent(len(frame))
	util.LogDebug("sent %s/%s frame (%d bytes)", t, cmd, len(frame))
	return nil
}

// Receive blocks until a full frame is accumulated and decoded, the
// transport fails, or ctx is cancelled. A valid frame opens the gate and is
// returned; a structurally bad frame is discarded, leaves the gate closed,
// and yields ErrBadFrame or ErrBadChecksum.
//
// There is no timeout: cancellation is the only way to abort a stalled
// wait. Partial bytes are kept on the Link across calls, so a short read
// never drops the head of the next frame.
func (l *Link) Receive(ctx context.Context) (*protocol.Packet, error) {
	chunk := make([]byte, protocol.FrameSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := l.conn.Read(chunk[:protocol.FrameSize-len(l.buf)])
		if err != nil {
			return nil, fmt.Errorf("failed to read from transport: %w", err)
		}
		if n > 0 {
			l.buf = append(l.buf, chunk[:n]...)
			util.Stats.AddRecv(n)
		}
		if len(l.buf) < protocol.FrameSize {
			continue
		}

		status, pkt := protocol.Decode(l.buf)
		l.buf = l.buf[:0]

		switch status {
		case protocol.StatusOK:
			// Only a RESPONSE counts as an acknowledgment; a valid ERROR
			// frame still leaves the previous command unconfirmed.
			if pkt.Type == protocol.TypeResponse {
				l.acked = true
			}
			util.Stats.AddFrame()
			if pkt.IsAck() {
				util.Stats.AddAck()
			}
			return pkt, nil
		case protocol.StatusBad:
			util.Stats.AddDecodeErr()
			util.LogError("%v", ErrBadFrame)
			return nil, ErrBadFrame
		case protocol.StatusChecksumBad:
			util.Stats.AddDecodeErr()
			util.LogError("%v", ErrBadChecksum)
			return nil, ErrBadChecksum
		default:
			// Unreachable: the buffer is exactly FrameSize bytes here.
			return nil, fmt.Errorf("unexpected decode status %s", status)
		}
	}
}

// Close releases the underlying transport.
func (l *Link) Close() error {
	return l.conn.Close()
}

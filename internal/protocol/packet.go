// Package protocol defines the fixed-size wire format spoken between the
// host controller and the rover firmware.
package protocol

// Wire layout constants. Both ends of a session are compiled against the
// same values; a frame is always exactly FrameSize bytes regardless of how
// many params a command actually uses.
const (
	// Magic is the frame marker, little-endian at offset 0.
	Magic uint32 = 0xFCFDFEFF

	// ParamCount is the number of uint32 parameter slots in every packet.
	// Unused slots are zero-filled so the frame length never varies.
	ParamCount = 16

	// DataSize is the length of the opaque payload block, reserved for
	// future use by the firmware.
	DataSize = 32

	// FrameSize is the total on-wire size of one frame:
	// magic(4) + type(1) + command(1) + params(16×4) + data(32) + checksum(1).
	FrameSize = 4 + 1 + 1 + ParamCount*4 + DataSize + 1
)

// PacketType identifies the role of a packet on the wire.
type PacketType uint8

const (
	TypeHello    PacketType = iota // session bring-up probe
	TypeCommand                    // host → rover command
	TypeResponse                   // rover → host acknowledgment / result
	TypeError                      // rover-side fault report
)

func (t PacketType) String() string {
	switch t {
	case TypeHello:
		return "HELLO"
	case TypeCommand:
		return "COMMAND"
	case TypeResponse:
		return "RESPONSE"
	case TypeError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Command is the operation requested by a COMMAND packet.
type Command uint8

const (
	CmdForward Command = iota
	CmdReverse
	CmdTurnLeft
	CmdTurnRight
	CmdStop
	CmdGetStats
	CmdClearStats
)

func (c Command) String() string {
	switch c {
	case CmdForward:
		return "FORWARD"
	case CmdReverse:
		return "REVERSE"
	case CmdTurnLeft:
		return "TURN_LEFT"
	case CmdTurnRight:
		return "TURN_RIGHT"
	case CmdStop:
		return "STOP"
	case CmdGetStats:
		return "GET_STATS"
	case CmdClearStats:
		return "CLEAR_STATS"
	}
	return "UNKNOWN"
}

// Response is the result code carried in the command byte of a RESPONSE
// packet. It shares the wire byte with Command; the packet type decides
// which namespace applies.
type Response uint8

const (
	RespOK          Response = iota // command accepted / completed
	RespStatus                      // params hold a stats snapshot (GET_STATS reply)
	RespBadPacket                   // rover rejected the frame structure
	RespBadChecksum                 // rover rejected the frame checksum
	RespBadCommand                  // rover did not recognize the command
)

func (r Response) String() string {
	switch r {
	case RespOK:
		return "OK"
	case RespStatus:
		return "STATUS"
	case RespBadPacket:
		return "BAD_PACKET"
	case RespBadChecksum:
		return "BAD_CHECKSUM"
	case RespBadCommand:
		return "BAD_COMMAND"
	}
	return "UNKNOWN"
}

// Packet is the protocol's sole wire unit. The zero value is a valid packet
// with all params and data zeroed.
type Packet struct {
	Type    PacketType
	Command uint8 // Command or Response namespace, decided by Type
	Params  [ParamCount]uint32
	Data    [DataSize]byte
}

// Resp returns the command byte interpreted as a response code.
func (p *Packet) Resp() Response {
	return Response(p.Command)
}

// IsAck reports whether the packet is a RESPONSE carrying RespOK.
func (p *Packet) IsAck() bool {
	return p.Type == TypeResponse && p.Resp() == RespOK
}

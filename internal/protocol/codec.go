package protocol

import "encoding/binary"

// Field offsets within a frame.
const (
	offType     = 4
	offCommand  = 5
	offParams   = 6
	offData     = offParams + ParamCount*4
	offChecksum = offData + DataSize
)

// Status classifies the outcome of decoding a byte buffer as a frame.
type Status uint8

const (
	StatusOK          Status = iota // frame valid, packet extracted
	StatusBad                       // magic marker mismatch
	StatusChecksumBad               // checksum mismatch
	StatusIncomplete                // fewer than FrameSize bytes, keep reading
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBad:
		return "BAD"
	case StatusChecksumBad:
		return "CHECKSUM_BAD"
	case StatusIncomplete:
		return "INCOMPLETE"
	}
	return "UNKNOWN"
}

// Checksum is the frame integrity check: the byte sum (mod 256) of all
// bytes preceding the checksum slot.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// Encode serializes a Packet into a FrameSize-byte frame. Every well-formed
// Packet value encodes successfully; there is no error path.
func Encode(p *Packet) []byte {
	buf := make([]byte, FrameSize)
	binary.LittleEndian.PutUint32(buf[0:offType], Magic)
	buf[offType] = byte(p.Type)
	buf[offCommand] = p.Command
	for i, v := range p.Params {
		binary.LittleEndian.PutUint32(buf[offParams+4*i:], v)
	}
	copy(buf[offData:offChecksum], p.Data[:])
	buf[offChecksum] = Checksum(buf[:offChecksum])
	return buf
}

// Decode validates buf as a frame and extracts the Packet. Checks are
// ordered cheapest first: length, then magic, then checksum; field
// extraction happens only once the frame is proven well-formed. The packet
// is nil unless the status is StatusOK.
func Decode(buf []byte) (Status, *Packet) {
	if len(buf) < FrameSize {
		return StatusIncomplete, nil
	}
	if binary.LittleEndian.Uint32(buf[0:offType]) != Magic {
		return StatusBad, nil
	}
	if Checksum(buf[:offChecksum]) != buf[offChecksum] {
		return StatusChecksumBad, nil
	}

	p := &Packet{
		Type:    PacketType(buf[offType]),
		Command: buf[offCommand],
	}
	for i := range p.Params {
		p.Params[i] = binary.LittleEndian.Uint32(buf[offParams+4*i:])
	}
	copy(p.Data[:], buf[offData:offChecksum])
	return StatusOK, p
}

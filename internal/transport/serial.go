package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// pollTimeout bounds every serial read so the link layer can poll for
// cancellation between attempts. go.bug.st/serial returns (0, nil) on
// timeout, which matches the Conn contract directly.
const pollTimeout = 100 * time.Millisecond

// SerialConfig describes how to open the rover's serial port.
type SerialConfig struct {
	Name     string // device path, e.g. /dev/ttyUSB0 or COM3
	Baud     int
	DataBits int
	Parity   string // "N", "E" or "O"
	StopBits int    // 1 or 2
}

// OpenSerial opens the named serial port with the given framing and a short
// read timeout, returning it as a Conn.
func OpenSerial(cfg SerialConfig) (Conn, error) {
	parity, err := parseParity(cfg.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := parseStopBits(cfg.StopBits)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
		Parity:   parity,
		StopBits: stopBits,
	}

	port, err := serial.Open(cfg.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Name, err)
	}
	if err := port.SetReadTimeout(pollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Name, err)
	}
	return port, nil
}

func parseParity(s string) (serial.Parity, error) {
	switch s {
	case "", "N", "n":
		return serial.NoParity, nil
	case "E", "e":
		return serial.EvenParity, nil
	case "O", "o":
		return serial.OddParity, nil
	}
	return serial.NoParity, fmt.Errorf("invalid parity %q: must be N, E or O", s)
}

func parseStopBits(n int) (serial.StopBits, error) {
	switch n {
	case 0, 1:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	}
	return serial.OneStopBit, fmt.Errorf("invalid stop bits %d: must be 1 or 2", n)
}

// Package config holds the CLI configuration types.
package config

// Mode selects which session loop the binary runs.
type Mode string

const (
	ModeConsole Mode = "console" // line-command interpreter
	ModeDrive   Mode = "drive"   // realtime keypress control
	ModeBridge  Mode = "bridge"  // expose the serial port over WebSocket
)

// Config stores all parameters gathered from flags and interactive prompts.
type Config struct {
	Mode Mode

	// Serial port settings (console/drive with a local port, and bridge).
	Port     string // device path, e.g. /dev/ttyUSB0
	Baud     int
	DataBits int
	Parity   string // "N", "E" or "O"
	StopBits int

	RemoteURL string // console/drive over a bridge instead of a local port
	Listen    string // bridge: listen address, e.g. :8791
}

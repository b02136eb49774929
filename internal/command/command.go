// Package command parses operator console input into protocol requests.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/1ureka/rovlink/internal/protocol"
)

// ErrInvalidInput marks every interpreter rejection: unknown commands,
// unresolvable parameters, malformed numbers. No packet is produced.
var ErrInvalidInput = errors.New("invalid input")

// Prompter asks the operator for the missing parameters of a command and
// returns the raw line entered. A nil Prompter disables re-prompting.
type Prompter func(msg string) (string, error)

// Request is an interpreter-level command, consumed immediately by the
// link. A Quit request produces no packet.
type Request struct {
	Type    protocol.PacketType
	Command protocol.Command
	Params  [protocol.ParamCount]uint32
	Quit    bool
}

// spec describes one console command: the wire command it maps to, how many
// parameters it requires, and the prompt shown when they are missing.
type spec struct {
	cmd    protocol.Command
	arity  int
	prompt string
}

var table = map[string]spec{
	"f": {protocol.CmdForward, 2, "Enter distance in cm and power in % separated by space (e.g. 50 75)"},
	"b": {protocol.CmdReverse, 2, "Enter distance in cm and power in % separated by space (e.g. 50 75)"},
	"l": {protocol.CmdTurnLeft, 2, "Enter degrees to turn and power in % separated by space (e.g. 90 75)"},
	"r": {protocol.CmdTurnRight, 2, "Enter degrees to turn and power in % separated by space (e.g. 90 75)"},
	"s": {protocol.CmdStop, 0, ""},
	"c": {protocol.CmdClearStats, 0, ""},
	"g": {protocol.CmdGetStats, 0, ""},
}

// Parse tokenizes one console line and resolves it into a Request.
//
// The first token selects the command; the following tokens fill its fixed
// parameter arity. Extra tokens are ignored. If fewer than required are
// given and a prompter is available, the operator is asked exactly once for
// the missing values; if they still cannot be resolved the line is rejected
// with ErrInvalidInput, as is an unrecognized first token.
func Parse(line string, prompt Prompter) (*Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidInput)
	}

	tok := strings.ToLower(fields[0])
	if tok == "q" {
		return &Request{Quit: true}, nil
	}

	sp, ok := table[tok]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a valid command", ErrInvalidInput, tok)
	}

	req := &Request{Type: protocol.TypeCommand, Command: sp.cmd}
	if err := resolveParams(&req.Params, fields[1:], sp, prompt); err != nil {
		return nil, err
	}
	return req, nil
}

// resolveParams fills out from raw, prompting at most once for missing
// values. Slots beyond the command's arity stay zero.
func resolveParams(out *[protocol.ParamCount]uint32, raw []string, sp spec, prompt Prompter) error {
	if sp.arity == 0 {
		return nil
	}

	if len(raw) < sp.arity && prompt != nil {
		line, err := prompt(sp.prompt)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		raw = strings.Fields(line)
	}
	if len(raw) < sp.arity {
		return fmt.Errorf("%w: %s needs %d parameters, got %d", ErrInvalidInput, sp.cmd, sp.arity, len(raw))
	}

	for i := 0; i < sp.arity; i++ {
		v, err := strconv.ParseUint(raw[i], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: parameter %q is not a number", ErrInvalidInput, raw[i])
		}
		out[i] = uint32(v)
	}
	return nil
}

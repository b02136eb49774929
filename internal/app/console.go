// Package app contains the operator-facing session loops: the line-command
// console, the realtime drive mode, and the response rendering they share.
package app

import (
	"context"
	"errors"

	"github.com/pterm/pterm"

	"github.com/1ureka/rovlink/internal/command"
	"github.com/1ureka/rovlink/internal/link"
	"github.com/1ureka/rovlink/internal/protocol"
	"github.com/1ureka/rovlink/internal/util"
)

// RunConsole drives the line-command session: handshake, then one
// parse → send → receive round per entered line until the operator quits
// or ctx is cancelled.
func RunConsole(ctx context.Context, l *link.Link) error {
	if err := l.Handshake(ctx); err != nil {
		return err
	}

	pterm.Println()
	pterm.Info.Println("Commands: f/b <dist> <power> | l/r <deg> <power> | s stop | g stats | c clear stats | q quit")

	for ctx.Err() == nil {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("command").
			Show()

		req, err := command.Parse(raw, promptOnce)
		if err != nil {
			util.LogWarning("%v", err)
			continue
		}
		if req.Quit {
			util.LogInfo("exit requested, cleaning up")
			return nil
		}

		if err := l.Send(req.Type, req.Command, req.Params[:]...); err != nil {
			if errors.Is(err, link.ErrGateClosed) {
				continue // already logged by the link
			}
			return err
		}

		pkt, err := l.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			util.LogWarning("no response from rover: %v", err)
			continue
		}
		renderResponse(pkt)
	}
	return nil
}

// promptOnce is the interactive Prompter handed to the interpreter for the
// single re-prompt it is allowed.
func promptOnce(msg string) (string, error) {
	return pterm.DefaultInteractiveTextInput.
		WithDefaultText(msg).
		Show()
}

// renderResponse logs what the rover answered. Responses carry either a
// plain result code or, for GET_STATS, a parameter snapshot.
func renderResponse(pkt *protocol.Packet) {
	switch {
	case pkt.IsAck():
		util.LogInfo("command acknowledged")
	case pkt.Type == protocol.TypeResponse && pkt.Resp() == protocol.RespStatus:
		util.LogInfo("rover status: %v", pkt.Params)
	case pkt.Type == protocol.TypeResponse:
		util.LogWarning("rover rejected command: %s", pkt.Resp())
	case pkt.Type == protocol.TypeError:
		util.LogError("rover reported a fault (code %d)", pkt.Command)
	default:
		util.LogWarning("unexpected packet: type=%s command=%d", pkt.Type, pkt.Command)
	}
}

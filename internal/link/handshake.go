package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/1ureka/rovlink/internal/protocol"
	"github.com/1ureka/rovlink/internal/util"
)

// ErrHandshake marks a failed session bring-up. Unlike every other error on
// the link it is terminal: the session must be torn down, not retried.
// Callers distinguish it with errors.Is.
var ErrHandshake = errors.New("handshake failed")

// Handshake performs the one-shot bring-up exchange: send a HELLO with a
// zeroed parameter list, then block for a single response. Anything other
// than a RESPONSE/OK frame — a decode failure, a cancellation, or a reply
// of the wrong type or code — is fatal.
func (l *Link) Handshake(ctx context.Context) error {
	if err := l.Send(protocol.TypeHello, protocol.CmdStop); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	pkt, err := l.Receive(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	if pkt.Type != protocol.TypeResponse {
		return fmt.Errorf("%w: unexpected packet type %s", ErrHandshake, pkt.Type)
	}
	if pkt.Resp() != protocol.RespOK {
		return fmt.Errorf("%w: unexpected response code %s", ErrHandshake, pkt.Resp())
	}

	util.LogInfo("rover is alive: hello response received")
	return nil
}

// Package input abstracts the drive mode's raw keypress source behind an
// event channel, keeping the control loop independent of any particular
// terminal mechanism.
package input

import (
	"context"
	"unicode"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
)

// Event is one discrete operator input.
type Event struct {
	Rune rune // lowercased printable key; zero when Quit is set
	Quit bool // ESC or Ctrl+C
}

// Source delivers operator input events. The channel is closed when the
// source shuts down.
type Source interface {
	Events() <-chan Event
}

// Keyboard is a Source backed by raw terminal keypresses.
type Keyboard struct {
	events chan Event
}

// NewKeyboard starts listening for keypresses until a quit key is pressed
// or ctx is cancelled. Keys pressed while the control loop is busy queue up
// in order, like the original typeahead behavior of a terminal.
func NewKeyboard(ctx context.Context) *Keyboard {
	k := &Keyboard{events: make(chan Event, 8)}

	go func() {
		defer close(k.events)
		_ = keyboard.Listen(func(key keys.Key) (bool, error) {
			if ctx.Err() != nil {
				return true, nil
			}

			switch key.Code {
			case keys.Escape, keys.CtrlC:
				k.deliver(ctx, Event{Quit: true})
				return true, nil
			case keys.RuneKey:
				r := []rune(key.String())
				if len(r) == 1 {
					k.deliver(ctx, Event{Rune: unicode.ToLower(r[0])})
				}
			}
			return false, nil
		})
	}()

	return k
}

// Events returns the keypress channel.
func (k *Keyboard) Events() <-chan Event {
	return k.events
}

func (k *Keyboard) deliver(ctx context.Context, ev Event) {
	select {
	case k.events <- ev:
	case <-ctx.Done():
	}
}

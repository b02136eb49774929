package app

import (
	"context"
	"errors"

	"github.com/pterm/pterm"

	"github.com/1ureka/rovlink/internal/input"
	"github.com/1ureka/rovlink/internal/link"
	"github.com/1ureka/rovlink/internal/protocol"
	"github.com/1ureka/rovlink/internal/util"
)

// Fixed magnitudes for drive mode: each keypress nudges the rover by a
// small step so holding a key approximates continuous motion.
const (
	driveDistanceCM = 2
	driveTurnDeg    = 6
)

// speedLevels are the three selectable power levels, in percent.
var speedLevels = map[rune]uint32{
	'1': 50,
	'2': 75,
	'3': 100,
}

// defaultSpeed is the power level a drive session starts at.
const defaultSpeed = uint32(50)

// driveCommand maps a movement key to its wire command and parameters at
// the given speed. Speed-select keys and unknown keys map to nothing.
func driveCommand(r rune, speed uint32) (protocol.Command, []uint32, bool) {
	switch r {
	case 'w':
		return protocol.CmdForward, []uint32{driveDistanceCM, speed}, true
	case 's':
		return protocol.CmdReverse, []uint32{driveDistanceCM, speed}, true
	case 'a':
		return protocol.CmdTurnLeft, []uint32{driveTurnDeg, speed}, true
	case 'd':
		return protocol.CmdTurnRight, []uint32{driveTurnDeg, speed}, true
	case 'z':
		return protocol.CmdStop, nil, true
	}
	return 0, nil, false
}

// RunDrive runs the realtime keypress control loop: handshake, then one
// send/receive round per movement key until ESC or cancellation.
//
// Speed keys only update local state; they generate no traffic. After every
// accepted send the loop blocks for the rover's response before taking the
// next event — a gated or failed send produces nothing to wait for, so the
// loop goes straight back to the event source.
func RunDrive(ctx context.Context, l *link.Link, src input.Source) error {
	if err := l.Handshake(ctx); err != nil {
		return err
	}

	speed := defaultSpeed
	pterm.Println()
	pterm.Info.Println("Drive mode: w/s move 2 cm, a/d turn 6°, 1/2/3 set power (50/75/100%), z stop, ESC quit")
	util.LogInfo("speed = %d%%", speed)

	for {
		var ev input.Event
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case ev, ok = <-src.Events():
		}
		if !ok || ev.Quit {
			util.LogInfo("leaving drive mode")
			return nil
		}

		if lvl, isSpeed := speedLevels[ev.Rune]; isSpeed {
			speed = lvl
			util.LogInfo("speed = %d%%", speed)
			continue
		}

		cmd, params, ok := driveCommand(ev.Rune, speed)
		if !ok {
			continue
		}

		util.LogDebug("%s %v", cmd, params)
		if err := l.Send(protocol.TypeCommand, cmd, params...); err != nil {
			if errors.Is(err, link.ErrGateClosed) {
				continue // already logged by the link
			}
			return err
		}

		pkt, err := l.Receive(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			util.LogWarning("no response from rover: %v", err)
		case pkt.IsAck():
			util.LogDebug("acknowledgement received")
		default:
			util.LogWarning("unexpected reply: type=%s command=%d", pkt.Type, pkt.Command)
		}
	}
}

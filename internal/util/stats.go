package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Session stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide link counter set for the current session.
var Stats = &stats{}

type stats struct {
	FramesSent   atomic.Int64 // frames written to the transport
	FramesRecv   atomic.Int64 // complete frames decoded OK
	Acks         atomic.Int64 // RESPONSE/OK frames observed
	DecodeErrors atomic.Int64 // frames rejected for bad magic or checksum
	GatedSends   atomic.Int64 // sends refused while awaiting acknowledgment
	BytesSent    atomic.Int64 // cumulative bytes written
	BytesRecv    atomic.Int64 // cumulative bytes read
}

func (s *stats) AddSent(n int) { s.FramesSent.Add(1); s.BytesSent.Add(int64(n)) }
func (s *stats) AddRecv(n int) { s.BytesRecv.Add(int64(n)) }
func (s *stats) AddFrame()     { s.FramesRecv.Add(1) }
func (s *stats) AddAck()       { s.Acks.Add(1) }
func (s *stats) AddDecodeErr() { s.DecodeErrors.Add(1) }
func (s *stats) AddGated()     { s.GatedSends.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs link statistics every
// 30 seconds while there is traffic. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		var prevSent, prevRecv int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.FramesSent.Load()
				recv := Stats.FramesRecv.Load()

				if sent != prevSent || recv != prevRecv {
					pterm.DefaultLogger.Info(Stats.Summary())
				}

				prevSent = sent
				prevRecv = recv

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Summary returns a one-line report of the session counters, also used for
// the final log line on shutdown.
func (s *stats) Summary() string {
	return fmt.Sprintf("sent: %d | recv: %d | acks: %d | decode errors: %d | gated sends: %d | %dB out / %dB in",
		s.FramesSent.Load(),
		s.FramesRecv.Load(),
		s.Acks.Load(),
		s.DecodeErrors.Load(),
		s.GatedSends.Load(),
		s.BytesSent.Load(),
		s.BytesRecv.Load(),
	)
}

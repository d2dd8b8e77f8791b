package tub

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Play steps through the selected clip every interval, calling show for each frame. It stops
// and rewinds at the end of the clip, or stops where it is when ctx is cancelled.
func (e *Editor) Play(ctx context.Context, clk clock.Clock, interval time.Duration, show func(FrameRecord)) error {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame, more := e.advance()
			show(frame)
			if !more {
				return nil
			}
		}
	}
}

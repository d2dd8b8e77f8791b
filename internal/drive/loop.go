package drive

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Loop runs fn every period until stopped. The ticker is created before Start returns.
type Loop struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func StartLoop(ctx context.Context, clk clock.Clock, period time.Duration, fn func(context.Context)) *Loop {
	loopCtx, cancel := context.WithCancel(ctx)
	l := &Loop{
		ctx:    loopCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	ticker := clk.Ticker(period)
	go func() {
		defer close(l.done)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				fn(loopCtx)
			}
		}
	}()
	return l
}

// Stop cancels the loop without waiting. fn must check its context before acting.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	l.cancel()
}

func (l *Loop) Running() bool {
	return l != nil && l.ctx.Err() == nil
}

func (l *Loop) Done() <-chan struct{} {
	return l.done
}

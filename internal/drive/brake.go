package drive

import (
	"context"
)

const (
	SoundBrake  = "brake"
	SoundEngage = "engage"
)

// brake zeroes the state, sends it, then resends the same command BrakeRepeats more times
// so a single dropped packet cannot leave the car moving. A newer brake replaces the sequence.
func (c *Controller) brake() {
	c.brakeLoop.Stop()
	c.brakeLoop = nil

	c.state.stopped()
	c.tilt.Reset()
	cmd := c.state.Command()
	c.submitter.Submit(cmd)
	c.announce(SoundBrake)
	c.logger.Info("brake on")

	if c.cfg.BrakeRepeats <= 0 {
		return
	}

	remaining := c.cfg.BrakeRepeats
	var loop *Loop
	loop = StartLoop(c.ctx, c.clock, c.cfg.BrakeRepeatInterval, func(ctx context.Context) {
		c.lock.Lock()
		defer c.lock.Unlock()

		if ctx.Err() != nil {
			return
		}
		c.submitter.Submit(cmd)
		remaining--
		if remaining <= 0 {
			loop.Stop()
		}
	})
	c.brakeLoop = loop
}

// release engages the car. Pending brake repeats are cancelled so they cannot fight new input.
func (c *Controller) release() {
	if !c.state.BrakeOn {
		return
	}
	c.state.BrakeOn = false
	c.brakeLoop.Stop()
	c.brakeLoop = nil
	c.announce(SoundEngage)
	c.logger.Info("brake off")
}

func (c *Controller) toggleBrake() {
	c.tilt.Reset()
	if c.state.BrakeOn {
		c.release()
		return
	}
	c.brake()
}

func (c *Controller) announce(sound string) {
	if c.announcer != nil {
		c.announcer.Announce(sound)
	}
}

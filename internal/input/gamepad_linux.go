//go:build linux

package input

import (
	"context"
	"fmt"

	"github.com/viamrobotics/evdev"
)

// Start opens the configured device and tracks its sticks until ctx is done
func (g *Gamepad) Start(ctx context.Context) error {
	dev, err := evdev.OpenFile(g.cfg.Device)
	if err != nil {
		return fmt.Errorf("failed opening gamepad %s: %w", g.cfg.Device, err)
	}
	defer dev.Close()

	g.logger.Infof("gamepad connected: %s (%s)", dev.Name(), g.cfg.Device)
	for code, axis := range dev.AbsoluteTypes() {
		g.setRange(uint16(code), axis.Min, axis.Max)
	}
	g.setConnected(true)
	defer g.setConnected(false)

	events := dev.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			g.logger.Infof("stopping gamepad reader: %s", ctx.Err())
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return fmt.Errorf("gamepad %s disconnected", g.cfg.Device)
			}
			if event.Event.Type == evdev.EventAbsolute {
				g.update(event.Event.Code, event.Event.Value)
			}
		}
	}
}

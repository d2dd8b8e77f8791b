package drive

import (
	"github.com/Speshl/gorrc_drive/internal/config"
)

type Gamepad struct {
	SteerAxis        int
	ThrottleAxis     int
	SteerDeadZone    float64
	ThrottleDeadZone float64
}

func NewGamepad(cfg config.GamepadConfig) Gamepad {
	return Gamepad{
		SteerAxis:        cfg.SteerAxis,
		ThrottleAxis:     cfg.ThrottleAxis,
		SteerDeadZone:    cfg.SteerDeadZone,
		ThrottleDeadZone: cfg.ThrottleDeadZone,
	}
}

// Normalize reads steering and throttle from raw pad axes. Pushing the throttle stick forward
// reads negative on most pads, so it is inverted. ok is false when the pad reports too few axes.
func (g Gamepad) Normalize(axes []float64, limit ThrottleLimit) (angle float64, throttle float64, ok bool) {
	if g.SteerAxis < 0 || g.ThrottleAxis < 0 || g.SteerAxis >= len(axes) || g.ThrottleAxis >= len(axes) {
		return 0, 0, false
	}

	angle = Clamp(ApplyDeadZone(axes[g.SteerAxis], g.SteerDeadZone), MinOutput, MaxOutput)
	throttle = limit.Apply(Clamp(-ApplyDeadZone(axes[g.ThrottleAxis], g.ThrottleDeadZone), MinOutput, MaxOutput))
	return angle, throttle, true
}

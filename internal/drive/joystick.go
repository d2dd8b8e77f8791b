package drive

import (
	"math"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/models"
)

// Joystick normalizes drag pad vectors. Scale is the pad distance that maps to full output.
type Joystick struct {
	Scale       float64
	SteerCutoff float64
}

func NewJoystick(cfg config.JoystickConfig) Joystick {
	return Joystick{
		Scale:       cfg.Scale,
		SteerCutoff: cfg.SteerCutoff,
	}
}

// Normalize returns angle and throttle for a drag of distance pixels in direction radian.
// The throttle limit is applied before the steering cutoff check.
func (j Joystick) Normalize(move models.JoystickMove, limit ThrottleLimit) (float64, float64) {
	angle := Clamp(math.Cos(move.Radian)*move.Distance/j.Scale, MinOutput, MaxOutput)
	throttle := limit.Apply(Clamp(math.Sin(move.Radian)*move.Distance/j.Scale, MinOutput, MaxOutput))

	// no steering until the pad commits to forward motion
	if j.SteerCutoff > 0 && throttle < j.SteerCutoff {
		angle = 0
	}
	return angle, throttle
}

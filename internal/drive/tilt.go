package drive

import (
	"fmt"
	"math"

	"github.com/Speshl/gorrc_drive/internal/config"
)

// Tilt turns device orientation into throttle (gamma) and steering (beta) relative to the
// gamma captured on the first reading after the brake is released.
type Tilt struct {
	DeadZone     float64
	Window       float64
	FullLock     float64
	ChatterLimit float64

	initialGamma float64
	calibrated   bool
}

func NewTilt(cfg config.TiltConfig) *Tilt {
	return &Tilt{
		DeadZone:     cfg.DeadZone,
		Window:       cfg.Window,
		FullLock:     cfg.FullLock,
		ChatterLimit: cfg.ChatterLimit,
	}
}

// Calibrate captures gamma as the neutral position unless already calibrated.
// A zero gamma carries no direction and is skipped.
func (t *Tilt) Calibrate(gamma float64) bool {
	if t.calibrated || gamma == 0 {
		return t.calibrated
	}
	t.initialGamma = gamma
	t.calibrated = true
	return true
}

func (t *Tilt) Reset() {
	t.initialGamma = 0
	t.calibrated = false
}

func (t *Tilt) Calibrated() bool {
	return t.calibrated
}

func (t *Tilt) InitialGamma() (float64, bool) {
	return t.initialGamma, t.calibrated
}

// direction is -1 or 1 depending on which way up the device was held at calibration
func (t *Tilt) direction() float64 {
	return sign(t.initialGamma) * -1
}

// Throttle maps gamma onto [-1,1]. Gamma is shifted into 0..180 so the +/-90 wrap never falls
// inside a window. Forward and reverse windows start DeadZone degrees either side of neutral.
func (t *Tilt) Throttle(gamma float64) (float64, error) {
	if !t.calibrated {
		return 0, nil
	}

	gamma180 := gamma + 90
	initialGamma180 := t.initialGamma + 90
	dir := t.direction()

	near := initialGamma180 + t.DeadZone*dir
	far := initialGamma180 + (t.DeadZone+t.Window)*dir
	minForward := math.Max(math.Min(near, far), 0)
	maxForward := math.Min(math.Max(near, far), 180)

	near = initialGamma180 - t.DeadZone*dir
	far = initialGamma180 - (t.DeadZone+t.Window)*dir
	minReverse := math.Max(math.Min(near, far), 0)
	maxReverse := math.Min(math.Max(near, far), 180)

	if gamma180 > minForward && gamma180 < maxForward {
		if dir == -1 {
			return Remap(gamma180, minForward, maxForward, 1.0, 0.0)
		}
		return Remap(gamma180, minForward, maxForward, 0.0, 1.0)
	} else if gamma180 > minReverse && gamma180 < maxReverse {
		if dir == -1 {
			return Remap(gamma180, minReverse, maxReverse, 0.0, -1.0)
		}
		return Remap(gamma180, minReverse, maxReverse, -1.0, 0.0)
	}
	return 0, nil
}

// Steering maps beta onto [-1,1]. Near gamma +/-90 beta flips between +180 and -180, so beta
// beyond +/-90 is folded back using the sign of gamma before the dead zones are applied.
func (t *Tilt) Steering(beta, gamma float64) (float64, error) {
	if !t.calibrated {
		return 0, nil
	}

	dir := t.direction()
	fullLeft := -t.FullLock
	fullRight := t.FullLock

	if beta > 90 {
		beta = (beta - 180) * sign(-gamma) * dir
	} else if beta < -90 {
		beta = (beta + 180) * sign(-gamma) * dir
	}

	outsideDeadZone := math.Abs(beta) > t.DeadZone
	if math.Abs(beta) > 90 {
		outsideDeadZone = math.Abs(beta) < 180-t.DeadZone
	}
	if !outsideDeadZone {
		return 0, nil
	}

	var angle float64
	var err error
	switch {
	case beta < -90:
		angle, err = Remap(beta, fullLeft, -180+t.DeadZone, -1.0, 0.0)
	case beta > 90:
		angle, err = Remap(beta, 180-t.DeadZone, fullRight, 0.0, 1.0)
	case beta < 0:
		angle, err = Remap(beta, fullLeft, -t.DeadZone, -1.0, 0.0)
	default:
		angle, err = Remap(beta, t.DeadZone, fullRight, 0.0, 1.0)
	}
	if err != nil {
		return 0, fmt.Errorf("failed mapping beta %.2f: %w", beta, err)
	}

	return Clamp(angle, MinOutput, MaxOutput) * dir, nil
}

// AntiChatter holds full throttle when a reading near the forward/reverse boundary would
// flip a hard forward (or reverse) command into the opposite direction.
func (t *Tilt) AntiChatter(previous, next float64) float64 {
	if previous > t.ChatterLimit && next <= 0 {
		return MaxOutput
	}
	if previous < -t.ChatterLimit && next >= 0 {
		return MinOutput
	}
	return next
}

func sign(value float64) float64 {
	if value > 0 {
		return 1
	} else if value < 0 {
		return -1
	}
	return 0
}

package drive

import (
	"errors"
	"fmt"
	"math"

	"github.com/Speshl/gorrc_drive/internal/models"
)

const (
	MaxInput  = 1.0
	MinInput  = -1.0
	MaxOutput = 1.0
	MinOutput = -1.0
)

var ErrDegenerateRange = errors.New("degenerate range")

// Remap linearly maps x from [oMin,oMax] onto [nMin,nMax]. Either range may be reversed.
func Remap(x, oMin, oMax, nMin, nMax float64) (float64, error) {
	if oMin == oMax {
		return 0, fmt.Errorf("zero input range [%.2f,%.2f]: %w", oMin, oMax, ErrDegenerateRange)
	}
	if nMin == nMax {
		return 0, fmt.Errorf("zero output range [%.2f,%.2f]: %w", nMin, nMax, ErrDegenerateRange)
	}

	oldMin, oldMax := math.Min(oMin, oMax), math.Max(oMin, oMax)
	newMin, newMax := math.Min(nMin, nMax), math.Max(nMin, nMax)

	portion := (x - oldMin) * (newMax - newMin) / (oldMax - oldMin)
	if oldMin != oMin {
		portion = (oldMax - x) * (newMax - newMin) / (oldMax - oldMin)
	}

	if newMin != nMin {
		return newMax - portion, nil
	}
	return portion + newMin, nil
}

func Clamp(value, min, max float64) float64 {
	if value > max {
		return max
	} else if value < min {
		return min
	}
	return value
}

// ApplyDeadZone zeroes values inside the threshold and rescales the rest so output stays continuous.
func ApplyDeadZone(value, threshold float64) float64 {
	percentage := (math.Abs(value) - threshold) / (1 - threshold)
	if percentage < 0 {
		return 0
	}

	if value > 0 {
		return percentage
	}
	return -percentage
}

type ThrottleLimit struct {
	Max  float64
	Mode models.ThrottleMode
}

// Apply clamps throttle to +/-Max. In constant mode the output is always +Max.
func (l ThrottleLimit) Apply(throttle float64) float64 {
	if l.Mode == models.ThrottleModeConstant {
		return l.Max
	}
	return Clamp(throttle, -l.Max, l.Max)
}

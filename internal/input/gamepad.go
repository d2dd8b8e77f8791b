package input

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/config"
)

var ErrGamepadUnsupported = errors.New("gamepad input not supported on this platform")

// Absolute axis codes in the order a browser reports a standard gamepad:
// left x, left y, right x, right y
var axisCodes = []uint16{0x00, 0x01, 0x03, 0x04}

type axisRange struct {
	min int32
	max int32
}

// Gamepad holds the latest axis positions read from an input device, scaled to [-1,1]
type Gamepad struct {
	lock      sync.Mutex
	cfg       config.GamepadConfig
	logger    *zap.SugaredLogger
	ranges    map[uint16]axisRange
	axes      []float64
	connected bool
}

func NewGamepad(cfg config.GamepadConfig, logger *zap.SugaredLogger) *Gamepad {
	return &Gamepad{
		cfg:    cfg,
		logger: logger,
		ranges: make(map[uint16]axisRange, len(axisCodes)),
		axes:   make([]float64, len(axisCodes)),
	}
}

// Axes returns a copy of the current axes. ok is false until the device is open.
func (g *Gamepad) Axes() ([]float64, bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]float64(nil), g.axes...), g.connected
}

func (g *Gamepad) setRange(code uint16, min, max int32) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if max <= min {
		return
	}
	g.ranges[code] = axisRange{min: min, max: max}
}

func (g *Gamepad) setConnected(connected bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.connected = connected
	if !connected {
		for i := range g.axes {
			g.axes[i] = 0
		}
	}
}

// update records an absolute axis event. Unknown axes are ignored.
func (g *Gamepad) update(code uint16, value int32) {
	g.lock.Lock()
	defer g.lock.Unlock()

	index := -1
	for i := range axisCodes {
		if axisCodes[i] == code {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}

	info, ok := g.ranges[code]
	if !ok {
		return
	}
	scaled := 2*float64(value-info.min)/float64(info.max-info.min) - 1
	if scaled > 1 {
		scaled = 1
	} else if scaled < -1 {
		scaled = -1
	}
	g.axes[index] = scaled
}

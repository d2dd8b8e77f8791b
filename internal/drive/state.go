package drive

import (
	"github.com/google/uuid"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/models"
)

// State is the control state of one drive session
type State struct {
	Session uuid.UUID

	Angle     float64
	Throttle  float64
	DriveMode models.DriveMode
	Recording bool
	BrakeOn   bool
	Pilot     string

	ControlMode  models.ControlMode
	MaxThrottle  float64
	ThrottleMode models.ThrottleMode

	HasOrientation bool
	HasGamepad     bool
}

func NewState(cfg config.DriveConfig) State {
	return State{
		Session:      uuid.New(),
		Angle:        0.0,
		Throttle:     0.0,
		DriveMode:    models.DriveModeUser,
		Recording:    false,
		BrakeOn:      true,
		Pilot:        "None",
		ControlMode:  models.ControlMode(cfg.ControlMode),
		MaxThrottle:  cfg.MaxThrottle,
		ThrottleMode: models.ThrottleMode(cfg.ThrottleMode),
	}
}

func (s State) Limit() ThrottleLimit {
	return ThrottleLimit{
		Max:  s.MaxThrottle,
		Mode: s.ThrottleMode,
	}
}

// Command builds the wire command, clamping angle and throttle
func (s State) Command() models.DriveCommand {
	return models.DriveCommand{
		Angle:     Clamp(s.Angle, MinOutput, MaxOutput),
		Throttle:  Clamp(s.Throttle, MinOutput, MaxOutput),
		DriveMode: s.DriveMode,
		Recording: s.Recording,
	}
}

// stopped zeroes motion and hands control back to the user
func (s *State) stopped() {
	s.Angle = 0
	s.Throttle = 0
	s.Recording = false
	s.DriveMode = models.DriveModeUser
	s.BrakeOn = true
}

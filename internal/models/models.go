package models

import (
	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
)

type DriveMode string

const (
	DriveModeUser      DriveMode = "user"
	DriveModeAuto      DriveMode = "auto"
	DriveModeAutoAngle DriveMode = "auto_angle"
)

func (m DriveMode) Valid() bool {
	switch m {
	case DriveModeUser, DriveModeAuto, DriveModeAutoAngle:
		return true
	}
	return false
}

type ControlMode string

const (
	ControlModeJoystick ControlMode = "joystick"
	ControlModeTilt     ControlMode = "tilt"
	ControlModeGamepad  ControlMode = "gamepad"
)

func (m ControlMode) Valid() bool {
	switch m {
	case ControlModeJoystick, ControlModeTilt, ControlModeGamepad:
		return true
	}
	return false
}

type ThrottleMode string

const (
	ThrottleModeUser     ThrottleMode = "user"
	ThrottleModeConstant ThrottleMode = "constant"
)

// DriveCommand is the body posted to the drive endpoint
type DriveCommand struct {
	Angle     float64   `json:"angle"`
	Throttle  float64   `json:"throttle"`
	DriveMode DriveMode `json:"drive_mode"`
	Recording bool      `json:"recording"`
}

type PilotCommand struct {
	Pilot string `json:"pilot"`
}

// Events relayed from a browser page over socket.io

type JoystickMove struct {
	Radian   float64 `json:"radian"`
	Distance float64 `json:"distance"`
}

type Orientation struct {
	Alpha *float64 `json:"alpha"`
	Beta  *float64 `json:"beta"`
	Gamma *float64 `json:"gamma"`
}

type KeyPress struct {
	Key string `json:"key"`
}

type Setting struct {
	Value string `json:"value"`
}

type ConnectReq struct {
	Key      string    `json:"key"`
	Password string    `json:"password"`
	Session  uuid.UUID `json:"session"`
}

type Offer struct {
	Offer     webrtc.SessionDescription `json:"offer"`
	VehicleID string                    `json:"vehicle_id"`
	Session   uuid.UUID                 `json:"session"`
}

type Answer struct {
	Answer  *webrtc.SessionDescription `json:"answer"`
	Session uuid.UUID                  `json:"session"`
}

// DataChannelMsg wraps commands sent over the webrtc command channel
type DataChannelMsg struct {
	Type  string        `json:"type"`
	Drive *DriveCommand `json:"drive,omitempty"`
	Pilot *PilotCommand `json:"pilot,omitempty"`
}

type Hud struct {
	Lines []string `json:"lines"`
}

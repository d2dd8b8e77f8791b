package drive

import "strings"

type KeyAction int

const (
	KeyNone KeyAction = iota
	KeyThrottleUp
	KeyThrottleDown
	KeyAngleLeft
	KeyAngleRight
	KeyToggleBrake
	KeyToggleRecording
	KeyDriveModeAuto
	KeyDriveModeUser
	KeyDriveModeAutoAngle
)

var keyMap = map[string]KeyAction{
	"i":     KeyThrottleUp,
	"k":     KeyThrottleDown,
	"j":     KeyAngleLeft,
	"l":     KeyAngleRight,
	" ":     KeyToggleBrake,
	"space": KeyToggleBrake,
	"r":     KeyToggleRecording,
	"a":     KeyDriveModeAuto,
	"d":     KeyDriveModeUser,
	"s":     KeyDriveModeAutoAngle,
}

// ParseKey maps a key name (as sent by the browser or read from a terminal) to an action
func ParseKey(key string) KeyAction {
	if key != " " {
		key = strings.ToLower(strings.TrimSpace(key))
	}
	action, ok := keyMap[key]
	if !ok {
		return KeyNone
	}
	return action
}

func (k KeyAction) String() string {
	switch k {
	case KeyThrottleUp:
		return "throttle up"
	case KeyThrottleDown:
		return "throttle down"
	case KeyAngleLeft:
		return "angle left"
	case KeyAngleRight:
		return "angle right"
	case KeyToggleBrake:
		return "toggle brake"
	case KeyToggleRecording:
		return "toggle recording"
	case KeyDriveModeAuto:
		return "drive mode auto"
	case KeyDriveModeUser:
		return "drive mode user"
	case KeyDriveModeAutoAngle:
		return "drive mode auto_angle"
	}
	return "none"
}

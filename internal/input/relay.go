package input

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/drive"
	"github.com/Speshl/gorrc_drive/internal/models"
)

// Controls is the part of the drive controller driven by relayed browser events
type Controls interface {
	JoystickStart()
	JoystickMove(models.JoystickMove)
	JoystickEnd()
	Orientation(models.Orientation)
	Key(drive.KeyAction)
	SetControlMode(models.ControlMode) error
	SetDriveMode(models.DriveMode) error
	SetPilot(string)
	SetMaxThrottle(float64) error
	SetThrottleMode(models.ThrottleMode) error
	ToggleBrake()
	ToggleRecording()
}

// EventRegistrar is satisfied by *socketio.Client
type EventRegistrar interface {
	OnEvent(event string, f interface{})
}

// Relay turns joystick, tilt and key events relayed from a browser page into controller calls
type Relay struct {
	controls Controls
	logger   *zap.SugaredLogger
	onAnswer func(string) error

	handlers map[string]func(string) error
}

func NewRelay(controls Controls, logger *zap.SugaredLogger) *Relay {
	r := &Relay{
		controls: controls,
		logger:   logger,
	}
	r.handlers = map[string]func(string) error{
		"joystick_start": r.onJoystickStart,
		"joystick_move":  r.onJoystickMove,
		"joystick_end":   r.onJoystickEnd,
		"orientation":    r.onOrientation,
		"key":            r.onKey,
		"control_mode":   r.onControlMode,
		"drive_mode":     r.onDriveMode,
		"pilot":          r.onPilot,
		"max_throttle":   r.onMaxThrottle,
		"throttle_mode":  r.onThrottleMode,
		"brake":          r.onBrake,
		"record":         r.onRecord,
		"answer":         r.onAnswerEvent,
	}
	return r
}

// OnAnswer routes webrtc answers to fn. Set before Register.
func (r *Relay) OnAnswer(fn func(string) error) {
	r.onAnswer = fn
}

func (r *Relay) Events() []string {
	events := make([]string, 0, len(r.handlers))
	for event := range r.handlers {
		events = append(events, event)
	}
	return events
}

func (r *Relay) Register(client EventRegistrar) {
	for event := range r.handlers {
		name := event
		client.OnEvent(name, func(s socketio.Conn, msg string) {
			err := r.Handle(name, msg)
			if err != nil {
				r.logger.Warnf("%s event failed: %s", name, err)
			}
		})
	}
}

// Handle dispatches a single relayed event
func (r *Relay) Handle(event, msg string) error {
	handler, ok := r.handlers[event]
	if !ok {
		return fmt.Errorf("unsupported event %q", event)
	}
	return handler(msg)
}

func (r *Relay) onJoystickStart(string) error {
	r.controls.JoystickStart()
	return nil
}

func (r *Relay) onJoystickMove(msg string) error {
	move := models.JoystickMove{}
	err := json.Unmarshal([]byte(msg), &move)
	if err != nil {
		return fmt.Errorf("failed unmarshalling joystick move: %w", err)
	}
	r.controls.JoystickMove(move)
	return nil
}

func (r *Relay) onJoystickEnd(string) error {
	r.controls.JoystickEnd()
	return nil
}

func (r *Relay) onOrientation(msg string) error {
	orientation := models.Orientation{}
	err := json.Unmarshal([]byte(msg), &orientation)
	if err != nil {
		return fmt.Errorf("failed unmarshalling orientation: %w", err)
	}
	r.controls.Orientation(orientation)
	return nil
}

func (r *Relay) onKey(msg string) error {
	press := models.KeyPress{}
	err := json.Unmarshal([]byte(msg), &press)
	if err != nil {
		return fmt.Errorf("failed unmarshalling key: %w", err)
	}
	action := drive.ParseKey(press.Key)
	if action == drive.KeyNone {
		return nil
	}
	r.controls.Key(action)
	return nil
}

func (r *Relay) onControlMode(msg string) error {
	value, err := settingValue(msg)
	if err != nil {
		return err
	}
	return r.controls.SetControlMode(models.ControlMode(value))
}

func (r *Relay) onDriveMode(msg string) error {
	value, err := settingValue(msg)
	if err != nil {
		return err
	}
	return r.controls.SetDriveMode(models.DriveMode(value))
}

func (r *Relay) onPilot(msg string) error {
	value, err := settingValue(msg)
	if err != nil {
		return err
	}
	r.controls.SetPilot(value)
	return nil
}

func (r *Relay) onMaxThrottle(msg string) error {
	value, err := settingValue(msg)
	if err != nil {
		return err
	}
	max, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("max throttle %q is not a number: %w", value, err)
	}
	return r.controls.SetMaxThrottle(max)
}

func (r *Relay) onThrottleMode(msg string) error {
	value, err := settingValue(msg)
	if err != nil {
		return err
	}
	return r.controls.SetThrottleMode(models.ThrottleMode(value))
}

func (r *Relay) onBrake(string) error {
	r.controls.ToggleBrake()
	return nil
}

func (r *Relay) onRecord(string) error {
	r.controls.ToggleRecording()
	return nil
}

func (r *Relay) onAnswerEvent(msg string) error {
	if r.onAnswer == nil {
		r.logger.Debug("ignoring answer, webrtc transport not in use")
		return nil
	}
	return r.onAnswer(msg)
}

// settingValue accepts {"value": "..."} or a bare string
func settingValue(msg string) (string, error) {
	setting := models.Setting{}
	err := json.Unmarshal([]byte(msg), &setting)
	if err == nil && setting.Value != "" {
		return setting.Value, nil
	}

	value := strings.Trim(strings.TrimSpace(msg), `"`)
	if value == "" {
		return "", fmt.Errorf("empty setting")
	}
	return value, nil
}

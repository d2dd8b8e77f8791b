package input

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/drive"
	"github.com/Speshl/gorrc_drive/internal/models"
)

type fakeControls struct {
	calls        []string
	move         models.JoystickMove
	orientation  models.Orientation
	keys         []drive.KeyAction
	controlMode  models.ControlMode
	driveMode    models.DriveMode
	pilot        string
	maxThrottle  float64
	throttleMode models.ThrottleMode
	err          error
}

func (f *fakeControls) JoystickStart() { f.calls = append(f.calls, "start") }
func (f *fakeControls) JoystickMove(move models.JoystickMove) {
	f.calls = append(f.calls, "move")
	f.move = move
}
func (f *fakeControls) JoystickEnd() { f.calls = append(f.calls, "end") }
func (f *fakeControls) Orientation(o models.Orientation) {
	f.calls = append(f.calls, "orientation")
	f.orientation = o
}
func (f *fakeControls) Key(action drive.KeyAction) { f.keys = append(f.keys, action) }
func (f *fakeControls) SetControlMode(mode models.ControlMode) error {
	f.controlMode = mode
	return f.err
}
func (f *fakeControls) SetDriveMode(mode models.DriveMode) error {
	f.driveMode = mode
	return f.err
}
func (f *fakeControls) SetPilot(pilot string) { f.pilot = pilot }
func (f *fakeControls) SetMaxThrottle(max float64) error {
	f.maxThrottle = max
	return f.err
}
func (f *fakeControls) SetThrottleMode(mode models.ThrottleMode) error {
	f.throttleMode = mode
	return f.err
}
func (f *fakeControls) ToggleBrake()     { f.calls = append(f.calls, "brake") }
func (f *fakeControls) ToggleRecording() { f.calls = append(f.calls, "record") }

type fakeRegistrar struct {
	events []string
}

func (f *fakeRegistrar) OnEvent(event string, _ interface{}) {
	f.events = append(f.events, event)
}

func TestRelay_JoystickEvents(t *testing.T) {
	controls := &fakeControls{}
	relay := NewRelay(controls, zaptest.NewLogger(t).Sugar())

	require.NoError(t, relay.Handle("joystick_start", ""))
	require.NoError(t, relay.Handle("joystick_move", `{"radian":1.57,"distance":35}`))
	require.NoError(t, relay.Handle("joystick_end", ""))

	assert.Equal(t, []string{"start", "move", "end"}, controls.calls)
	assert.Equal(t, models.JoystickMove{Radian: 1.57, Distance: 35}, controls.move)

	require.Error(t, relay.Handle("joystick_move", `{"radian":`))
	require.Error(t, relay.Handle("warp", ""))
}

func TestRelay_OrientationKeepsMissingValues(t *testing.T) {
	controls := &fakeControls{}
	relay := NewRelay(controls, zaptest.NewLogger(t).Sugar())

	require.NoError(t, relay.Handle("orientation", `{"alpha":1,"beta":null,"gamma":-12.5}`))
	assert.Nil(t, controls.orientation.Beta)
	require.NotNil(t, controls.orientation.Gamma)
	assert.Equal(t, -12.5, *controls.orientation.Gamma)
}

func TestRelay_KeysAndSettings(t *testing.T) {
	controls := &fakeControls{}
	relay := NewRelay(controls, zaptest.NewLogger(t).Sugar())

	require.NoError(t, relay.Handle("key", `{"key":"i"}`))
	require.NoError(t, relay.Handle("key", `{"key":"q"}`))
	require.NoError(t, relay.Handle("key", `{"key":" "}`))
	assert.Equal(t, []drive.KeyAction{drive.KeyThrottleUp, drive.KeyToggleBrake}, controls.keys)

	require.NoError(t, relay.Handle("control_mode", `{"value":"tilt"}`))
	assert.Equal(t, models.ControlModeTilt, controls.controlMode)
	require.NoError(t, relay.Handle("drive_mode", `"auto_angle"`))
	assert.Equal(t, models.DriveModeAutoAngle, controls.driveMode)
	require.NoError(t, relay.Handle("pilot", `{"value":"mypilot.h5"}`))
	assert.Equal(t, "mypilot.h5", controls.pilot)
	require.NoError(t, relay.Handle("max_throttle", `{"value":"0.5"}`))
	assert.Equal(t, 0.5, controls.maxThrottle)
	require.NoError(t, relay.Handle("throttle_mode", `constant`))
	assert.Equal(t, models.ThrottleModeConstant, controls.throttleMode)

	require.Error(t, relay.Handle("max_throttle", `{"value":"fast"}`))
	require.Error(t, relay.Handle("pilot", ``))

	controls.err = errors.New("tilt: control mode unavailable")
	require.Error(t, relay.Handle("control_mode", `{"value":"tilt"}`))
}

func TestRelay_BrakeRecordAndAnswer(t *testing.T) {
	controls := &fakeControls{}
	relay := NewRelay(controls, zaptest.NewLogger(t).Sugar())

	require.NoError(t, relay.Handle("brake", ""))
	require.NoError(t, relay.Handle("record", ""))
	assert.Equal(t, []string{"brake", "record"}, controls.calls)

	// no webrtc transport
	require.NoError(t, relay.Handle("answer", `{}`))

	answers := []string{}
	relay.OnAnswer(func(msg string) error {
		answers = append(answers, msg)
		return nil
	})
	require.NoError(t, relay.Handle("answer", `{"session":"x"}`))
	assert.Equal(t, []string{`{"session":"x"}`}, answers)
}

func TestRelay_RegistersEveryEvent(t *testing.T) {
	relay := NewRelay(&fakeControls{}, zaptest.NewLogger(t).Sugar())
	registrar := &fakeRegistrar{}
	relay.Register(registrar)

	expected := relay.Events()
	sort.Strings(expected)
	sort.Strings(registrar.events)
	assert.Equal(t, expected, registrar.events)
	assert.Contains(t, registrar.events, "joystick_move")
	assert.Contains(t, registrar.events, "answer")
}

func TestGamepad_ScalesAxes(t *testing.T) {
	pad := NewGamepad(config.DefaultConfig().GamepadCfg, zaptest.NewLogger(t).Sugar())

	_, ok := pad.Axes()
	assert.False(t, ok)

	pad.setRange(0x00, 0, 255)
	pad.setRange(0x01, -32768, 32767)
	pad.setRange(0x03, -32768, 32767)
	pad.setConnected(true)

	pad.update(0x00, 255)
	pad.update(0x01, -32768)
	pad.update(0x03, 0)
	pad.update(0x04, 100) // no range known
	pad.update(0x10, 1)   // hat, not tracked

	axes, ok := pad.Axes()
	require.True(t, ok)
	require.Len(t, axes, 4)
	assert.InDelta(t, 1.0, axes[0], 1e-9)
	assert.InDelta(t, -1.0, axes[1], 1e-9)
	assert.InDelta(t, 0.0, axes[2], 1e-4)
	assert.Zero(t, axes[3])

	pad.setConnected(false)
	axes, ok = pad.Axes()
	assert.False(t, ok)
	assert.Equal(t, []float64{0, 0, 0, 0}, axes)
}

type keyRecorder struct {
	keys []drive.KeyAction
}

func (k *keyRecorder) Key(action drive.KeyAction) {
	k.keys = append(k.keys, action)
}

func TestKeyboard_Listen(t *testing.T) {
	recorder := &keyRecorder{}
	keyboard := NewKeyboard(nil, recorder, zaptest.NewLogger(t).Sugar())

	err := keyboard.Listen(context.Background(), strings.NewReader("iijx r"))
	require.NoError(t, err)
	assert.Equal(t, []drive.KeyAction{
		drive.KeyThrottleUp,
		drive.KeyThrottleUp,
		drive.KeyAngleLeft,
		drive.KeyToggleBrake,
		drive.KeyToggleRecording,
	}, recorder.keys)

	err = keyboard.Listen(context.Background(), strings.NewReader("l\x03i"))
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, drive.KeyAngleRight, recorder.keys[len(recorder.keys)-1])
}

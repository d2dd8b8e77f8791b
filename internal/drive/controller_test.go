package drive

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/models"
)

const waitFor = time.Second
const pollEvery = 5 * time.Millisecond

type recordingSubmitter struct {
	mu     sync.Mutex
	cmds   []models.DriveCommand
	pilots []models.PilotCommand
}

func (r *recordingSubmitter) Submit(cmd models.DriveCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
}

func (r *recordingSubmitter) SubmitPilot(cmd models.PilotCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pilots = append(r.pilots, cmd)
}

func (r *recordingSubmitter) commands() []models.DriveCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.DriveCommand(nil), r.cmds...)
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cmds)
}

func (r *recordingSubmitter) last() models.DriveCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cmds) == 0 {
		return models.DriveCommand{}
	}
	return r.cmds[len(r.cmds)-1]
}

type recordingAnnouncer struct {
	mu     sync.Mutex
	sounds []string
}

func (r *recordingAnnouncer) Announce(sound string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sounds = append(r.sounds, sound)
}

func (r *recordingAnnouncer) played() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sounds...)
}

type fakePad struct {
	mu   sync.Mutex
	axes []float64
}

func (f *fakePad) Axes() ([]float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.axes...), true
}

func (f *fakePad) set(axes ...float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.axes = axes
}

type testRig struct {
	ctrl      *Controller
	submitter *recordingSubmitter
	announcer *recordingAnnouncer
	clock     *clock.Mock
}

func newTestRig(t *testing.T, mutate func(*config.Config), opts ...ControllerOption) testRig {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	rig := testRig{
		submitter: &recordingSubmitter{},
		announcer: &recordingAnnouncer{},
		clock:     clock.NewMock(),
	}
	opts = append([]ControllerOption{WithClock(rig.clock), WithAnnouncer(rig.announcer)}, opts...)
	rig.ctrl = NewController(cfg, rig.submitter, zaptest.NewLogger(t).Sugar(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		rig.ctrl.Stop()
		cancel()
	})
	require.NoError(t, rig.ctrl.Start(ctx))
	return rig
}

// advance moves the mock clock one step and waits for the expected number of commands
func (r testRig) advance(t *testing.T, d time.Duration, expected int) {
	t.Helper()
	r.clock.Add(d)
	require.Eventually(t, func() bool { return r.submitter.count() == expected }, waitFor, pollEvery,
		"expected %d commands, got %d", expected, r.submitter.count())
}

func gamma(v float64) *float64 { return &v }

func TestController_InitialState(t *testing.T) {
	rig := newTestRig(t, nil)
	state := rig.ctrl.Snapshot()

	assert.True(t, state.BrakeOn)
	assert.Equal(t, "None", state.Pilot)
	assert.Equal(t, models.DriveModeUser, state.DriveMode)
	assert.Equal(t, models.ControlModeJoystick, state.ControlMode)
	assert.False(t, state.Recording)
	assert.Zero(t, rig.submitter.count())
}

func TestController_WithSession(t *testing.T) {
	session := uuid.New()
	rig := newTestRig(t, nil, WithSession(session))
	assert.Equal(t, session, rig.ctrl.Snapshot().Session)
}

func TestController_BrakeSequence(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.JoystickMove(models.JoystickMove{Radian: math.Pi / 2, Distance: 70})
	require.Equal(t, 1, rig.submitter.count())
	assert.InDelta(t, 1.0, rig.submitter.last().Throttle, 1e-9)

	rig.ctrl.Brake()
	require.Equal(t, 2, rig.submitter.count())
	for i := 1; i <= 4; i++ {
		rig.advance(t, 500*time.Millisecond, 2+i)
	}

	rig.clock.Add(2 * time.Second)
	assert.Never(t, func() bool { return rig.submitter.count() != 6 }, 50*time.Millisecond, pollEvery)

	brakes := rig.submitter.commands()[1:]
	require.Len(t, brakes, 5)
	for _, cmd := range brakes {
		assert.Zero(t, cmd.Angle)
		assert.Zero(t, cmd.Throttle)
		assert.False(t, cmd.Recording)
		assert.Equal(t, models.DriveModeUser, cmd.DriveMode)
	}
	assert.Equal(t, []string{SoundEngage, SoundBrake}, rig.announcer.played())
}

func TestController_BrakeRepeatsCancelledByEngage(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.ToggleBrake() // release
	rig.ctrl.ToggleBrake() // brake
	require.Equal(t, 1, rig.submitter.count())
	rig.advance(t, 500*time.Millisecond, 2)

	rig.ctrl.JoystickMove(models.JoystickMove{Radian: math.Pi / 2, Distance: 35})
	require.Equal(t, 3, rig.submitter.count())

	rig.clock.Add(2 * time.Second)
	assert.Never(t, func() bool { return rig.submitter.count() != 3 }, 50*time.Millisecond, pollEvery)
	assert.InDelta(t, 0.5, rig.submitter.last().Throttle, 1e-9)
}

func TestController_JoystickSession(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.JoystickStart()
	assert.True(t, rig.ctrl.Snapshot().Recording)

	rig.ctrl.JoystickMove(models.JoystickMove{Radian: math.Pi / 4, Distance: 70})
	require.Equal(t, 1, rig.submitter.count())
	assert.False(t, rig.ctrl.Snapshot().BrakeOn)

	// the joystick loop resends the held position
	rig.advance(t, 100*time.Millisecond, 2)
	rig.advance(t, 100*time.Millisecond, 3)
	held := rig.submitter.last()
	assert.InDelta(t, math.Sqrt2/2, held.Angle, 1e-9)
	assert.InDelta(t, math.Sqrt2/2, held.Throttle, 1e-9)
	assert.True(t, held.Recording)

	rig.ctrl.JoystickEnd()
	require.Equal(t, 4, rig.submitter.count())
	assert.Zero(t, rig.submitter.last().Throttle)

	// only brake repeats remain
	rig.clock.Add(100 * time.Millisecond)
	assert.Never(t, func() bool { return rig.submitter.count() != 4 }, 50*time.Millisecond, pollEvery)
	rig.advance(t, 400*time.Millisecond, 5)
}

func TestController_JoystickIgnoredOutsideJoystickMode(t *testing.T) {
	pad := &fakePad{}
	pad.set(0, 0, 0)
	rig := newTestRig(t, nil, WithGamepadReader(pad))

	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeGamepad))
	rig.ctrl.JoystickMove(models.JoystickMove{Radian: math.Pi / 2, Distance: 70})
	assert.Zero(t, rig.submitter.count())
}

func TestController_ModeGating(t *testing.T) {
	rig := newTestRig(t, nil)

	require.ErrorIs(t, rig.ctrl.SetControlMode(models.ControlModeTilt), ErrModeUnavailable)
	require.ErrorIs(t, rig.ctrl.SetControlMode(models.ControlModeGamepad), ErrModeUnavailable)
	require.Error(t, rig.ctrl.SetControlMode("wheel"))
	assert.Equal(t, models.ControlModeJoystick, rig.ctrl.Snapshot().ControlMode)

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})
	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeTilt))
	assert.Equal(t, models.ControlModeTilt, rig.ctrl.Snapshot().ControlMode)
}

func TestController_ModeSwitchStopsPreviousLoop(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.JoystickStart()
	rig.ctrl.JoystickMove(models.JoystickMove{Radian: math.Pi / 2, Distance: 70})
	rig.advance(t, 100*time.Millisecond, 2)

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})
	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeTilt))
	rig.ctrl.Brake()
	require.Equal(t, 3, rig.submitter.count())

	// braked tilt loop stays quiet and the joystick loop is gone
	rig.clock.Add(100 * time.Millisecond)
	assert.Never(t, func() bool { return rig.submitter.count() != 3 }, 50*time.Millisecond, pollEvery)
}

func TestController_TiltSession(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})
	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeTilt))

	// braked readings are ignored
	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(-20)})
	assert.Zero(t, rig.ctrl.Snapshot().Throttle)

	rig.ctrl.ToggleBrake()
	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})
	initial, ok := rig.ctrl.tilt.InitialGamma()
	require.True(t, ok)
	assert.Equal(t, 10.0, initial)
	assert.Zero(t, rig.ctrl.Snapshot().Throttle)

	// readings do not transmit on their own
	rig.ctrl.Orientation(models.Orientation{Beta: gamma(20), Gamma: gamma(-20)})
	assert.Zero(t, rig.submitter.count())

	rig.advance(t, 100*time.Millisecond, 1)
	cmd := rig.submitter.last()
	assert.InDelta(t, 1-20.0/45, cmd.Throttle, 1e-9)
	assert.InDelta(t, -0.5, cmd.Angle, 1e-9)
}

func TestController_TiltAntiChatter(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})
	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeTilt))
	rig.ctrl.ToggleBrake()
	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(-39)})
	require.Greater(t, rig.ctrl.Snapshot().Throttle, 0.9)

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(11)})
	assert.Equal(t, 1.0, rig.ctrl.Snapshot().Throttle)
}

func TestController_InvalidOrientationLeavesTilt(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})
	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeTilt))

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0)})
	state := rig.ctrl.Snapshot()
	assert.False(t, state.HasOrientation)
	assert.Equal(t, models.ControlModeJoystick, state.ControlMode)
}

func TestController_InvalidOrientationSendsStoppedCommand(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.ctrl.Orientation(models.Orientation{Beta: gamma(0), Gamma: gamma(10)})
	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeTilt))
	rig.ctrl.ToggleBrake()
	rig.ctrl.Orientation(models.Orientation{Beta: gamma(20), Gamma: gamma(10)})
	rig.ctrl.Orientation(models.Orientation{Beta: gamma(20), Gamma: gamma(-30)})
	require.NotZero(t, rig.ctrl.Snapshot().Throttle)
	before := rig.submitter.count()

	rig.ctrl.Orientation(models.Orientation{Gamma: gamma(-30)})
	require.Equal(t, before+1, rig.submitter.count())
	cmd := rig.submitter.last()
	assert.Zero(t, cmd.Throttle)
	assert.Zero(t, cmd.Angle)

	// no tilt loop left to resend the stale throttle
	rig.advance(t, 500*time.Millisecond, before+1)
}

func TestController_GamepadSession(t *testing.T) {
	pad := &fakePad{}
	pad.set(0, -1, 0.5)
	rig := newTestRig(t, nil, WithGamepadReader(pad))

	require.NoError(t, rig.ctrl.SetControlMode(models.ControlModeGamepad))
	rig.advance(t, 100*time.Millisecond, 1)

	cmd := rig.submitter.last()
	assert.InDelta(t, 0.45/0.95, cmd.Angle, 1e-9)
	assert.InDelta(t, 1.0, cmd.Throttle, 1e-9)
	assert.True(t, cmd.Recording)
	assert.False(t, rig.ctrl.Snapshot().BrakeOn)

	pad.set(0, 0, 0)
	rig.advance(t, 100*time.Millisecond, 2)
	cmd = rig.submitter.last()
	assert.Zero(t, cmd.Throttle)
	assert.False(t, cmd.Recording)
	assert.True(t, rig.ctrl.Snapshot().BrakeOn)
}

func TestController_GamepadStartWithoutPad(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DriveCfg.ControlMode = string(models.ControlModeGamepad)
	ctrl := NewController(cfg, &recordingSubmitter{}, zaptest.NewLogger(t).Sugar(), WithClock(clock.NewMock()))

	require.ErrorIs(t, ctrl.Start(context.Background()), ErrModeUnavailable)
}

func TestController_Keys(t *testing.T) {
	rig := newTestRig(t, func(cfg *config.Config) {
		cfg.DriveCfg.MaxThrottle = 0.12
	})

	rig.ctrl.Key(KeyThrottleUp)
	rig.ctrl.Key(KeyThrottleUp)
	rig.ctrl.Key(KeyThrottleUp)
	assert.InDelta(t, 0.12, rig.submitter.last().Throttle, 1e-9)

	for i := 0; i < 15; i++ {
		rig.ctrl.Key(KeyAngleLeft)
	}
	assert.InDelta(t, -1.0, rig.submitter.last().Angle, 1e-9)

	rig.ctrl.Key(KeyToggleRecording)
	assert.True(t, rig.submitter.last().Recording)

	rig.ctrl.Key(KeyDriveModeAutoAngle)
	assert.Equal(t, models.DriveModeAutoAngle, rig.submitter.last().DriveMode)

	before := rig.submitter.count()
	rig.ctrl.Key(KeyNone)
	assert.Equal(t, before, rig.submitter.count())
}

func TestController_ConstantThrottle(t *testing.T) {
	rig := newTestRig(t, nil)

	require.NoError(t, rig.ctrl.SetMaxThrottle(0.4))
	require.NoError(t, rig.ctrl.SetThrottleMode(models.ThrottleModeConstant))
	rig.ctrl.Key(KeyThrottleDown)
	assert.InDelta(t, 0.4, rig.submitter.last().Throttle, 1e-9)

	// brake still stops the car
	rig.ctrl.Brake()
	assert.Zero(t, rig.submitter.last().Throttle)
}

func TestController_Settings(t *testing.T) {
	rig := newTestRig(t, nil)

	require.Error(t, rig.ctrl.SetMaxThrottle(0))
	require.Error(t, rig.ctrl.SetMaxThrottle(1.5))
	require.Error(t, rig.ctrl.SetThrottleMode("cruise"))
	require.Error(t, rig.ctrl.SetDriveMode("fast"))

	require.NoError(t, rig.ctrl.SetDriveMode(models.DriveModeAuto))
	assert.Equal(t, models.DriveModeAuto, rig.submitter.last().DriveMode)

	rig.ctrl.SetPilot("mypilot.h5")
	assert.Equal(t, "mypilot.h5", rig.ctrl.Snapshot().Pilot)
	rig.submitter.mu.Lock()
	assert.Equal(t, []models.PilotCommand{{Pilot: "mypilot.h5"}}, rig.submitter.pilots)
	rig.submitter.mu.Unlock()
}

func TestLoop_StopEndsTicks(t *testing.T) {
	mock := clock.NewMock()
	var mu sync.Mutex
	ticks := 0

	loop := StartLoop(context.Background(), mock, time.Second, func(ctx context.Context) {
		mu.Lock()
		defer mu.Unlock()
		ticks++
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return ticks
	}

	mock.Add(time.Second)
	require.Eventually(t, func() bool { return count() == 1 }, waitFor, pollEvery)
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return count() == 2 }, waitFor, pollEvery)
	assert.True(t, loop.Running())

	loop.Stop()
	<-loop.Done()
	assert.False(t, loop.Running())
	mock.Add(time.Second)
	assert.Equal(t, 2, count())

	var nilLoop *Loop
	nilLoop.Stop()
	assert.False(t, nilLoop.Running())
}

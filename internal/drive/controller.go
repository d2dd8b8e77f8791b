package drive

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/models"
)

var ErrModeUnavailable = errors.New("control mode unavailable")

type Submitter interface {
	Submit(models.DriveCommand)
	SubmitPilot(models.PilotCommand)
}

type Announcer interface {
	Announce(sound string)
}

type GamepadReader interface {
	Axes() ([]float64, bool)
}

type Controller struct {
	lock   sync.Mutex
	ctx    context.Context
	cfg    config.DriveConfig
	clock  clock.Clock
	logger *zap.SugaredLogger

	state    State
	joystick Joystick
	gamepad  Gamepad
	tilt     *Tilt

	throttleStep float64
	angleStep    float64

	submitter Submitter
	announcer Announcer
	pad       GamepadReader

	modeLoop  *Loop
	brakeLoop *Loop
}

type ControllerOption func(*Controller)

func WithClock(clk clock.Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clk
	}
}

func WithAnnouncer(announcer Announcer) ControllerOption {
	return func(c *Controller) {
		c.announcer = announcer
	}
}

func WithSession(session uuid.UUID) ControllerOption {
	return func(c *Controller) {
		c.state.Session = session
	}
}

func WithGamepadReader(pad GamepadReader) ControllerOption {
	return func(c *Controller) {
		c.pad = pad
		c.state.HasGamepad = pad != nil
	}
}

func NewController(cfg config.Config, submitter Submitter, logger *zap.SugaredLogger, opts ...ControllerOption) *Controller {
	c := &Controller{
		ctx:          context.Background(),
		cfg:          cfg.DriveCfg,
		clock:        clock.New(),
		logger:       logger,
		state:        NewState(cfg.DriveCfg),
		joystick:     NewJoystick(cfg.JoystickCfg),
		gamepad:      NewGamepad(cfg.GamepadCfg),
		tilt:         NewTilt(cfg.TiltCfg),
		throttleStep: cfg.KeyboardCfg.ThrottleStep,
		angleStep:    cfg.KeyboardCfg.AngleStep,
		submitter:    submitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins polling for the configured control mode. Loops stop when ctx is done.
func (c *Controller) Start(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.ctx = ctx
	c.logger.Infof("starting drive session %s in %s mode", c.state.Session, c.state.ControlMode)

	switch c.state.ControlMode {
	case models.ControlModeTilt:
		c.startModeLoop(c.tiltTick)
	case models.ControlModeGamepad:
		if c.pad == nil {
			return fmt.Errorf("gamepad mode configured without a gamepad: %w", ErrModeUnavailable)
		}
		c.startModeLoop(c.gamepadTick)
	}
	return nil
}

func (c *Controller) Stop() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.logger.Info("stopping drive controller")
	c.modeLoop.Stop()
	c.brakeLoop.Stop()
}

func (c *Controller) Snapshot() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *Controller) JoystickStart() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state.ControlMode != models.ControlModeJoystick {
		c.logger.Debugf("ignoring joystick start in %s mode", c.state.ControlMode)
		return
	}

	c.state.Angle = 0
	c.state.Throttle = 0
	c.state.Recording = true
	c.startModeLoop(c.joystickTick)
}

func (c *Controller) JoystickMove(move models.JoystickMove) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state.ControlMode != models.ControlModeJoystick {
		return
	}

	c.release()
	c.state.Angle, c.state.Throttle = c.joystick.Normalize(move, c.state.Limit())
	c.post()
}

func (c *Controller) JoystickEnd() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state.ControlMode != models.ControlModeJoystick {
		return
	}

	c.modeLoop.Stop()
	c.brake()
}

// Orientation applies a device orientation reading. Readings only update state, the tilt loop transmits.
func (c *Controller) Orientation(reading models.Orientation) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if reading.Beta == nil || reading.Gamma == nil {
		if c.state.HasOrientation || c.state.ControlMode == models.ControlModeTilt {
			c.logger.Warn("invalid device orientation values, switching to joystick mode")
		}
		c.state.HasOrientation = false
		if c.state.ControlMode == models.ControlModeTilt {
			// drop the last tilt output and send once so the fallback shows up right away
			c.setMode(models.ControlModeJoystick)
			c.state.Angle = 0
			c.state.Throttle = 0
			c.post()
		}
		return
	}
	c.state.HasOrientation = true

	if c.state.ControlMode != models.ControlModeTilt || c.state.BrakeOn {
		return
	}

	beta, gamma := *reading.Beta, *reading.Gamma
	if !c.tilt.Calibrated() && c.tilt.Calibrate(gamma) {
		c.logger.Infof("tilt calibrated at gamma %.1f", gamma)
	}

	throttle, err := c.tilt.Throttle(gamma)
	if err != nil {
		c.logger.Warnf("failed mapping tilt throttle: %s", err)
		return
	}
	angle, err := c.tilt.Steering(beta, gamma)
	if err != nil {
		c.logger.Warnf("failed mapping tilt steering: %s", err)
		return
	}

	throttle = c.tilt.AntiChatter(c.state.Throttle, throttle)
	c.state.Throttle = c.state.Limit().Apply(throttle)
	c.state.Angle = angle
}

func (c *Controller) Key(action KeyAction) {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch action {
	case KeyThrottleUp:
		c.state.Throttle = c.state.Limit().Apply(math.Min(c.state.Throttle+c.throttleStep, MaxOutput))
		c.post()
	case KeyThrottleDown:
		c.state.Throttle = c.state.Limit().Apply(math.Max(c.state.Throttle-c.throttleStep, MinOutput))
		c.post()
	case KeyAngleLeft:
		c.state.Angle = math.Max(c.state.Angle-c.angleStep, MinOutput)
		c.post()
	case KeyAngleRight:
		c.state.Angle = math.Min(c.state.Angle+c.angleStep, MaxOutput)
		c.post()
	case KeyToggleBrake:
		c.toggleBrake()
	case KeyToggleRecording:
		c.toggleRecording()
	case KeyDriveModeAuto:
		c.setDriveMode(models.DriveModeAuto)
	case KeyDriveModeUser:
		c.setDriveMode(models.DriveModeUser)
	case KeyDriveModeAutoAngle:
		c.setDriveMode(models.DriveModeAutoAngle)
	default:
		c.logger.Debugf("ignoring unmapped key")
	}
}

func (c *Controller) SetControlMode(mode models.ControlMode) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch mode {
	case models.ControlModeJoystick:
	case models.ControlModeTilt:
		if !c.state.HasOrientation {
			return fmt.Errorf("tilt: %w", ErrModeUnavailable)
		}
	case models.ControlModeGamepad:
		if !c.state.HasGamepad || c.pad == nil {
			return fmt.Errorf("gamepad: %w", ErrModeUnavailable)
		}
	default:
		return fmt.Errorf("unknown control mode %q", mode)
	}

	c.setMode(mode)
	switch mode {
	case models.ControlModeJoystick:
		c.startModeLoop(c.joystickTick)
	case models.ControlModeTilt:
		c.startModeLoop(c.tiltTick)
	case models.ControlModeGamepad:
		c.startModeLoop(c.gamepadTick)
	}
	c.logger.Infof("%s mode", mode)
	return nil
}

func (c *Controller) SetDriveMode(mode models.DriveMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown drive mode %q", mode)
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.setDriveMode(mode)
	return nil
}

func (c *Controller) SetPilot(pilot string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.state.Pilot = pilot
	c.submitter.SubmitPilot(models.PilotCommand{Pilot: pilot})
}

func (c *Controller) SetMaxThrottle(max float64) error {
	if max <= 0 || max > 1 {
		return fmt.Errorf("max throttle must be in (0,1], got %.2f", max)
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.state.MaxThrottle = max
	return nil
}

func (c *Controller) SetThrottleMode(mode models.ThrottleMode) error {
	switch mode {
	case models.ThrottleModeUser, models.ThrottleModeConstant:
	default:
		return fmt.Errorf("unknown throttle mode %q", mode)
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.state.ThrottleMode = mode
	return nil
}

func (c *Controller) ToggleRecording() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.toggleRecording()
}

func (c *Controller) ToggleBrake() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.toggleBrake()
}

func (c *Controller) Brake() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.brake()
}

func (c *Controller) setDriveMode(mode models.DriveMode) {
	c.state.DriveMode = mode
	c.post()
}

func (c *Controller) toggleRecording() {
	c.state.Recording = !c.state.Recording
	c.post()
}

// setMode switches the active mode and cancels the previous mode's loop
func (c *Controller) setMode(mode models.ControlMode) {
	c.modeLoop.Stop()
	c.modeLoop = nil
	c.state.ControlMode = mode
}

func (c *Controller) startModeLoop(tick func(context.Context)) {
	c.modeLoop.Stop()
	c.modeLoop = StartLoop(c.ctx, c.clock, c.cfg.PollInterval, func(ctx context.Context) {
		c.safeTick(ctx, tick)
	})
}

// safeTick keeps a panicking tick from killing its loop
func (c *Controller) safeTick(ctx context.Context, tick func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("recovered from panic in control loop: %v", r)
		}
	}()
	tick(ctx)
}

func (c *Controller) joystickTick(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ctx.Err() != nil || c.state.ControlMode != models.ControlModeJoystick {
		return
	}
	c.post()
}

func (c *Controller) tiltTick(ctx context.Context) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ctx.Err() != nil || c.state.ControlMode != models.ControlModeTilt {
		return
	}
	if !c.state.BrakeOn {
		c.post()
	}
}

func (c *Controller) gamepadTick(ctx context.Context) {
	if c.pad == nil {
		return
	}
	axes, ok := c.pad.Axes()

	c.lock.Lock()
	defer c.lock.Unlock()

	if ctx.Err() != nil || c.state.ControlMode != models.ControlModeGamepad || !ok {
		return
	}

	angle, throttle, ok := c.gamepad.Normalize(axes, c.state.Limit())
	if !ok {
		c.logger.Warnf("gamepad reported %d axes, need steer axis %d and throttle axis %d", len(axes), c.gamepad.SteerAxis, c.gamepad.ThrottleAxis)
		return
	}

	c.state.Angle = angle
	c.state.Throttle = throttle
	if angle == 0 && throttle == 0 {
		c.state.BrakeOn = true
	} else {
		c.release()
	}
	c.state.Recording = throttle != 0
	c.post()
}

func (c *Controller) post() {
	c.submitter.Submit(c.state.Command())
}

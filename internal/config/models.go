package config

import "time"

const (
	AppEnvBase = "GORRC_"

	MaxSupportedServos = 16

	DefaultLogLevel = "info"
	DefaultLogDev   = false

	// Default Server Options
	DefaultServer    = "127.0.0.1:8181"
	DefaultVehicleID = ""
	DefaultDriveURL  = "http://127.0.0.1:8887/drive"
	DefaultPilotURL  = "http://127.0.0.1:8887/drive"
	DefaultCarKey    = ""
	DefaultPassword  = ""

	// Default Drive Options
	DefaultTransports          = "http"
	DefaultControlMode         = "joystick"
	DefaultPollInterval        = 100 * time.Millisecond
	DefaultBrakeRepeats        = 4
	DefaultBrakeRepeatInterval = 500 * time.Millisecond
	DefaultMaxThrottle         = 1.0
	DefaultThrottleMode        = "user"
	DefaultQueueSize           = 100

	// Default Joystick Options
	DefaultJoystickScale       = 70.0 // 350px zone damped by 5
	DefaultJoystickSteerCutoff = 0.001

	// Default Gamepad Options
	DefaultGamepadEnabled          = false
	DefaultGamepadDevice           = "/dev/input/event0"
	DefaultGamepadSteerAxis        = 2
	DefaultGamepadThrottleAxis     = 1
	DefaultGamepadSteerDeadZone    = 0.05
	DefaultGamepadThrottleDeadZone = 0.15

	// Default Tilt Options
	DefaultTiltDeadZone     = 5.0
	DefaultTiltWindow       = 45.0
	DefaultTiltFullLock     = 35.0
	DefaultTiltChatterLimit = 0.9

	// Default Keyboard Options
	DefaultKeyboardEnabled = true
	DefaultThrottleStep    = 0.05
	DefaultAngleStep       = 0.1

	// Default Hud Options
	DefaultHudEnabled  = true
	DefaultHudNetIface = "wlan0"

	// Default Speaker Options
	DefaultSpeakerEnabled = false
	DefaultSpeakerDevice  = "default"

	// Default Command Options
	DefaultCommandDriver = "pca9685"
	DefaultAddress       = 0x40
	DefaultI2CDevice     = "/dev/i2c-1"
	DefaultMaxPulse      = 2250
	DefaultMinPulse      = 750
	DefaultInverted      = false
	DefaultOffset        = 0

	// Default WebRTC Options
	DefaultStunServer = "stun:stun.l.google.com:19302"

	// Default Tub Options
	DefaultTubServer     = "http://127.0.0.1:8886"
	DefaultPlayInterval  = 30 * time.Millisecond
	DefaultThumbnailSize = 160
)

type Config struct {
	LogCfg      LogConfig      `yaml:"log"`
	ServerCfg   ServerConfig   `yaml:"server"`
	DriveCfg    DriveConfig    `yaml:"drive"`
	JoystickCfg JoystickConfig `yaml:"joystick"`
	GamepadCfg  GamepadConfig  `yaml:"gamepad"`
	TiltCfg     TiltConfig     `yaml:"tilt"`
	KeyboardCfg KeyboardConfig `yaml:"keyboard"`
	HudCfg      HudConfig      `yaml:"hud"`
	SpeakerCfg  SpeakerConfig  `yaml:"speaker"`
	CommandCfg  CommandConfig  `yaml:"command"`
	WebRTCCfg   WebRTCConfig   `yaml:"webrtc"`
	TubCfg      TubConfig      `yaml:"tub"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

type ServerConfig struct {
	Server    string `yaml:"server"`
	VehicleID string `yaml:"vehicle_id"`
	DriveURL  string `yaml:"drive_url"`
	PilotURL  string `yaml:"pilot_url"`
	Key       string `yaml:"key"`
	Password  string `yaml:"password"`
}

type DriveConfig struct {
	Transports          []string      `yaml:"transports"`
	ControlMode         string        `yaml:"control_mode"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	BrakeRepeats        int           `yaml:"brake_repeats"`
	BrakeRepeatInterval time.Duration `yaml:"brake_repeat_interval"`
	MaxThrottle         float64       `yaml:"max_throttle"`
	ThrottleMode        string        `yaml:"throttle_mode"`
	QueueSize           int           `yaml:"queue_size"`
}

type JoystickConfig struct {
	Scale       float64 `yaml:"scale"`
	SteerCutoff float64 `yaml:"steer_cutoff"`
}

type GamepadConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Device           string  `yaml:"device"`
	SteerAxis        int     `yaml:"steer_axis"`
	ThrottleAxis     int     `yaml:"throttle_axis"`
	SteerDeadZone    float64 `yaml:"steer_dead_zone"`
	ThrottleDeadZone float64 `yaml:"throttle_dead_zone"`
}

type TiltConfig struct {
	DeadZone     float64 `yaml:"dead_zone"`
	Window       float64 `yaml:"window"`
	FullLock     float64 `yaml:"full_lock"`
	ChatterLimit float64 `yaml:"chatter_limit"`
}

type KeyboardConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ThrottleStep float64 `yaml:"throttle_step"`
	AngleStep    float64 `yaml:"angle_step"`
}

type HudConfig struct {
	Enabled  bool   `yaml:"enabled"`
	NetIface string `yaml:"net_iface"`
}

type SpeakerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Device  string `yaml:"device"`
}

type CommandConfig struct {
	CommandDriver string        `yaml:"driver"`
	Address       byte          `yaml:"address"`
	I2CDevice     string        `yaml:"i2c_device"`
	ServoCfgs     []ServoConfig `yaml:"servos"`
}

type ServoConfig struct {
	Name     string  `yaml:"name"`
	Inverted bool    `yaml:"inverted"`
	Channel  int     `yaml:"channel"`
	MaxPulse float64 `yaml:"max_pulse"`
	MinPulse float64 `yaml:"min_pulse"`
	Offset   int     `yaml:"offset"`
}

type WebRTCConfig struct {
	StunServer string `yaml:"stun_server"`
}

type TubConfig struct {
	Server        string        `yaml:"server"`
	PlayInterval  time.Duration `yaml:"play_interval"`
	ThumbnailSize int           `yaml:"thumbnail_size"`
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var SupportedTransports = []string{"http", "socketio", "webrtc", "servo"}

// GetConfig builds the app config from defaults, then the optional yaml file at path, then GORRC_ env vars.
func GetConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		err := LoadFile(path, &cfg)
		if err != nil {
			return Config{}, err
		}
	}

	cfg.LogCfg = GetLogConfig(cfg.LogCfg)
	cfg.ServerCfg = GetServerConfig(cfg.ServerCfg)
	cfg.DriveCfg = GetDriveConfig(cfg.DriveCfg)
	cfg.JoystickCfg = GetJoystickConfig(cfg.JoystickCfg)
	cfg.GamepadCfg = GetGamepadConfig(cfg.GamepadCfg)
	cfg.TiltCfg = GetTiltConfig(cfg.TiltCfg)
	cfg.KeyboardCfg = GetKeyboardConfig(cfg.KeyboardCfg)
	cfg.HudCfg = GetHudConfig(cfg.HudCfg)
	cfg.SpeakerCfg = GetSpeakerConfig(cfg.SpeakerCfg)
	cfg.CommandCfg = GetCommandConfig(cfg.CommandCfg)
	cfg.WebRTCCfg = GetWebRTCConfig(cfg.WebRTCCfg)
	cfg.TubCfg = GetTubConfig(cfg.TubCfg)

	err := cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func DefaultConfig() Config {
	return Config{
		LogCfg: LogConfig{
			Level: DefaultLogLevel,
			Dev:   DefaultLogDev,
		},
		ServerCfg: ServerConfig{
			Server:    DefaultServer,
			VehicleID: DefaultVehicleID,
			DriveURL:  DefaultDriveURL,
			PilotURL:  DefaultPilotURL,
			Key:       DefaultCarKey,
			Password:  DefaultPassword,
		},
		DriveCfg: DriveConfig{
			Transports:          strings.Split(DefaultTransports, ","),
			ControlMode:         DefaultControlMode,
			PollInterval:        DefaultPollInterval,
			BrakeRepeats:        DefaultBrakeRepeats,
			BrakeRepeatInterval: DefaultBrakeRepeatInterval,
			MaxThrottle:         DefaultMaxThrottle,
			ThrottleMode:        DefaultThrottleMode,
			QueueSize:           DefaultQueueSize,
		},
		JoystickCfg: JoystickConfig{
			Scale:       DefaultJoystickScale,
			SteerCutoff: DefaultJoystickSteerCutoff,
		},
		GamepadCfg: GamepadConfig{
			Enabled:          DefaultGamepadEnabled,
			Device:           DefaultGamepadDevice,
			SteerAxis:        DefaultGamepadSteerAxis,
			ThrottleAxis:     DefaultGamepadThrottleAxis,
			SteerDeadZone:    DefaultGamepadSteerDeadZone,
			ThrottleDeadZone: DefaultGamepadThrottleDeadZone,
		},
		TiltCfg: TiltConfig{
			DeadZone:     DefaultTiltDeadZone,
			Window:       DefaultTiltWindow,
			FullLock:     DefaultTiltFullLock,
			ChatterLimit: DefaultTiltChatterLimit,
		},
		KeyboardCfg: KeyboardConfig{
			Enabled:      DefaultKeyboardEnabled,
			ThrottleStep: DefaultThrottleStep,
			AngleStep:    DefaultAngleStep,
		},
		HudCfg: HudConfig{
			Enabled:  DefaultHudEnabled,
			NetIface: DefaultHudNetIface,
		},
		SpeakerCfg: SpeakerConfig{
			Enabled: DefaultSpeakerEnabled,
			Device:  DefaultSpeakerDevice,
		},
		CommandCfg: CommandConfig{
			CommandDriver: DefaultCommandDriver,
			Address:       DefaultAddress,
			I2CDevice:     DefaultI2CDevice,
		},
		WebRTCCfg: WebRTCConfig{
			StunServer: DefaultStunServer,
		},
		TubCfg: TubConfig{
			Server:        DefaultTubServer,
			PlayInterval:  DefaultPlayInterval,
			ThumbnailSize: DefaultThumbnailSize,
		},
	}
}

func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file - %w", err)
	}

	err = yaml.Unmarshal(b, cfg)
	if err != nil {
		return fmt.Errorf("error parsing config file %s - %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if c.DriveCfg.MaxThrottle <= 0 || c.DriveCfg.MaxThrottle > 1 {
		errs = append(errs, fmt.Errorf("drive.max_throttle must be in (0,1], got %.2f", c.DriveCfg.MaxThrottle))
	}
	switch c.DriveCfg.ThrottleMode {
	case "user", "constant":
	default:
		errs = append(errs, fmt.Errorf("drive.throttle_mode %q not supported", c.DriveCfg.ThrottleMode))
	}
	switch c.DriveCfg.ControlMode {
	case "joystick", "tilt", "gamepad":
	default:
		errs = append(errs, fmt.Errorf("drive.control_mode %q not supported", c.DriveCfg.ControlMode))
	}
	if c.DriveCfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("drive.poll_interval must be positive"))
	}
	if c.DriveCfg.BrakeRepeats < 0 {
		errs = append(errs, fmt.Errorf("drive.brake_repeats must not be negative"))
	}
	if c.DriveCfg.BrakeRepeats > 0 && c.DriveCfg.BrakeRepeatInterval <= 0 {
		errs = append(errs, fmt.Errorf("drive.brake_repeat_interval must be positive"))
	}
	if len(c.DriveCfg.Transports) == 0 {
		errs = append(errs, fmt.Errorf("drive.transports must name at least one transport"))
	}
	for _, transport := range c.DriveCfg.Transports {
		if !supportedTransport(transport) {
			errs = append(errs, fmt.Errorf("transport %q not supported", transport))
		}
	}

	if c.JoystickCfg.Scale <= 0 {
		errs = append(errs, fmt.Errorf("joystick.scale must be positive"))
	}
	if c.GamepadCfg.SteerDeadZone < 0 || c.GamepadCfg.SteerDeadZone >= 1 {
		errs = append(errs, fmt.Errorf("gamepad.steer_dead_zone must be in [0,1)"))
	}
	if c.GamepadCfg.ThrottleDeadZone < 0 || c.GamepadCfg.ThrottleDeadZone >= 1 {
		errs = append(errs, fmt.Errorf("gamepad.throttle_dead_zone must be in [0,1)"))
	}
	if c.TiltCfg.Window <= 0 || c.TiltCfg.FullLock <= c.TiltCfg.DeadZone {
		errs = append(errs, fmt.Errorf("tilt window and full lock must be wider than the dead zone"))
	}

	if c.ServerCfg.VehicleID != "" {
		if _, err := uuid.Parse(c.ServerCfg.VehicleID); err != nil {
			errs = append(errs, fmt.Errorf("server.vehicle_id is not a uuid: %w", err))
		}
	}
	return errors.Join(errs...)
}

func supportedTransport(name string) bool {
	for _, supported := range SupportedTransports {
		if name == supported {
			return true
		}
	}
	return false
}

func GetLogConfig(cfg LogConfig) LogConfig {
	return LogConfig{
		Level: GetStringEnv("LOGLEVEL", cfg.Level),
		Dev:   GetBoolEnv("LOGDEV", cfg.Dev),
	}
}

func GetServerConfig(cfg ServerConfig) ServerConfig {
	serverCfg := ServerConfig{
		Server:    GetStringEnv("SERVER", cfg.Server),
		VehicleID: GetStringEnv("VEHICLEID", cfg.VehicleID),
		DriveURL:  GetStringEnv("DRIVEURL", cfg.DriveURL),
		PilotURL:  GetStringEnv("PILOTURL", cfg.PilotURL),
		Key:       GetStringEnv("CARKEY", cfg.Key),
		Password:  GetStringEnv("CARPASSWORD", cfg.Password),
	}

	// Vehicle scoped endpoints when a vehicle id is set
	if serverCfg.VehicleID != "" && serverCfg.DriveURL == DefaultDriveURL {
		serverCfg.DriveURL = fmt.Sprintf("http://%s/api/vehicles/drive/%s/", serverCfg.Server, serverCfg.VehicleID)
	}
	if serverCfg.VehicleID != "" && serverCfg.PilotURL == DefaultPilotURL {
		serverCfg.PilotURL = fmt.Sprintf("http://%s/api/vehicles/%s/", serverCfg.Server, serverCfg.VehicleID)
	}
	return serverCfg
}

func GetDriveConfig(cfg DriveConfig) DriveConfig {
	return DriveConfig{
		Transports:          GetListEnv("TRANSPORTS", cfg.Transports),
		ControlMode:         strings.ToLower(GetStringEnv("CONTROLMODE", cfg.ControlMode)),
		PollInterval:        GetDurationEnv("POLLINTERVAL", cfg.PollInterval),
		BrakeRepeats:        GetIntEnv("BRAKEREPEATS", cfg.BrakeRepeats),
		BrakeRepeatInterval: GetDurationEnv("BRAKEREPEATINTERVAL", cfg.BrakeRepeatInterval),
		MaxThrottle:         GetFloatEnv("MAXTHROTTLE", cfg.MaxThrottle),
		ThrottleMode:        strings.ToLower(GetStringEnv("THROTTLEMODE", cfg.ThrottleMode)),
		QueueSize:           GetIntEnv("QUEUESIZE", cfg.QueueSize),
	}
}

func GetJoystickConfig(cfg JoystickConfig) JoystickConfig {
	envPrefix := "JOYSTICK_"
	return JoystickConfig{
		Scale:       GetFloatEnv(envPrefix+"SCALE", cfg.Scale),
		SteerCutoff: GetFloatEnv(envPrefix+"STEER_CUTOFF", cfg.SteerCutoff),
	}
}

func GetGamepadConfig(cfg GamepadConfig) GamepadConfig {
	envPrefix := "GAMEPAD_"
	return GamepadConfig{
		Enabled:          GetBoolEnv(envPrefix+"ENABLED", cfg.Enabled),
		Device:           GetStringEnv(envPrefix+"DEVICE", cfg.Device),
		SteerAxis:        GetIntEnv(envPrefix+"STEER_AXIS", cfg.SteerAxis),
		ThrottleAxis:     GetIntEnv(envPrefix+"THROTTLE_AXIS", cfg.ThrottleAxis),
		SteerDeadZone:    GetFloatEnv(envPrefix+"STEER_DEADZONE", cfg.SteerDeadZone),
		ThrottleDeadZone: GetFloatEnv(envPrefix+"THROTTLE_DEADZONE", cfg.ThrottleDeadZone),
	}
}

func GetTiltConfig(cfg TiltConfig) TiltConfig {
	envPrefix := "TILT_"
	return TiltConfig{
		DeadZone:     GetFloatEnv(envPrefix+"DEADZONE", cfg.DeadZone),
		Window:       GetFloatEnv(envPrefix+"WINDOW", cfg.Window),
		FullLock:     GetFloatEnv(envPrefix+"FULLLOCK", cfg.FullLock),
		ChatterLimit: GetFloatEnv(envPrefix+"CHATTER_LIMIT", cfg.ChatterLimit),
	}
}

func GetKeyboardConfig(cfg KeyboardConfig) KeyboardConfig {
	envPrefix := "KEYBOARD_"
	return KeyboardConfig{
		Enabled:      GetBoolEnv(envPrefix+"ENABLED", cfg.Enabled),
		ThrottleStep: GetFloatEnv(envPrefix+"THROTTLE_STEP", cfg.ThrottleStep),
		AngleStep:    GetFloatEnv(envPrefix+"ANGLE_STEP", cfg.AngleStep),
	}
}

func GetHudConfig(cfg HudConfig) HudConfig {
	return HudConfig{
		Enabled:  GetBoolEnv("HUDENABLED", cfg.Enabled),
		NetIface: GetStringEnv("HUDNETIFACE", cfg.NetIface),
	}
}

func GetSpeakerConfig(cfg SpeakerConfig) SpeakerConfig {
	return SpeakerConfig{
		Enabled: GetBoolEnv("SPEAKERENABLED", cfg.Enabled),
		Device:  GetStringEnv("SPEAKERDEVICE", cfg.Device),
	}
}

func GetCommandConfig(cfg CommandConfig) CommandConfig {
	commandCfg := CommandConfig{
		CommandDriver: strings.ToLower(GetStringEnv("SERVODRIVER", cfg.CommandDriver)),
		Address:       cfg.Address,
		I2CDevice:     GetStringEnv("I2CDEVICE", cfg.I2CDevice),
		ServoCfgs:     make([]ServoConfig, 0, MaxSupportedServos),
	}
	commandCfg.ServoCfgs = append(commandCfg.ServoCfgs, cfg.ServoCfgs...)

	for i := 0; i < MaxSupportedServos; i++ {
		envPrefix := fmt.Sprintf("SERVO%d_", i)
		servoCfg := ServoConfig{
			Name:     strings.ToLower(GetStringEnv(envPrefix+"NAME", "")),
			Channel:  GetIntEnv(envPrefix+"CHANNEL", i),
			MaxPulse: float64(GetIntEnv(envPrefix+"MAXPULSE", DefaultMaxPulse)),
			MinPulse: float64(GetIntEnv(envPrefix+"MINPULSE", DefaultMinPulse)),
			Inverted: GetBoolEnv(envPrefix+"INVERTED", DefaultInverted),
			Offset:   GetIntEnv(envPrefix+"MIDOFFSET", DefaultOffset),
		}

		if servoCfg.Name != "" {
			zap.S().Infof("found config for servo: %s", servoCfg.Name)
			commandCfg.ServoCfgs = upsertServo(commandCfg.ServoCfgs, servoCfg)
		}
	}
	return commandCfg
}

func upsertServo(servos []ServoConfig, servo ServoConfig) []ServoConfig {
	for i := range servos {
		if servos[i].Name == servo.Name {
			servos[i] = servo
			return servos
		}
	}
	return append(servos, servo)
}

func GetWebRTCConfig(cfg WebRTCConfig) WebRTCConfig {
	return WebRTCConfig{
		StunServer: GetStringEnv("STUNSERVER", cfg.StunServer),
	}
}

func GetTubConfig(cfg TubConfig) TubConfig {
	envPrefix := "TUB_"
	return TubConfig{
		Server:        GetStringEnv(envPrefix+"SERVER", cfg.Server),
		PlayInterval:  GetDurationEnv(envPrefix+"PLAYINTERVAL", cfg.PlayInterval),
		ThumbnailSize: GetIntEnv(envPrefix+"THUMBNAILSIZE", cfg.ThumbnailSize),
	}
}

func GetIntEnv(env string, defaultValue int) int {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseInt(strings.Trim(envValue, "\r"), 10, 32)
		if err != nil {
			zap.S().Warnf("%s not parsed - error: %s", env, err)
			return defaultValue
		} else {
			return int(value)
		}
	}
}

func GetBoolEnv(env string, defaultValue bool) bool {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseBool(strings.Trim(envValue, "\r"))
		if err != nil {
			zap.S().Warnf("%s not parsed - error: %s", env, err)
			return defaultValue
		} else {
			return value
		}
	}
}

func GetStringEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		return strings.Trim(envValue, "\r")
	}
}

func GetFloatEnv(env string, defaultValue float64) float64 {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := strconv.ParseFloat(strings.Trim(envValue, "\r"), 64)
		if err != nil {
			zap.S().Warnf("%s not parsed - error: %s", env, err)
			return defaultValue
		}
		return value
	}
}

func GetDurationEnv(env string, defaultValue time.Duration) time.Duration {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	} else {
		value, err := time.ParseDuration(strings.Trim(envValue, "\r"))
		if err != nil {
			zap.S().Warnf("%s not parsed - error: %s", env, err)
			return defaultValue
		}
		return value
	}
}

// GetListEnv reads a comma separated list, lower cased and trimmed
func GetListEnv(env string, defaultValue []string) []string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}

	values := make([]string, 0, 4)
	for _, value := range strings.Split(strings.Trim(envValue, "\r"), ",") {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}

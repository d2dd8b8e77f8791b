package dispatch

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/command/pca9685"
	"github.com/Speshl/gorrc_drive/internal/command/pipwm"
	"github.com/Speshl/gorrc_drive/internal/config"
)

const (
	TransportHTTP     = "http"
	TransportSocketIO = "socketio"
	TransportWebRTC   = "webrtc"
	TransportServo    = "servo"
)

// Senders is the sender built from config plus the webrtc sender when one was requested,
// since it needs signalling wired up by the caller
type Senders struct {
	Sender Sender
	WebRTC *WebRTCSender
}

func BuildSenders(cfg config.Config, emitter Emitter, session uuid.UUID, logger *zap.SugaredLogger) (Senders, error) {
	built := Senders{}
	senders := make([]Sender, 0, len(cfg.DriveCfg.Transports))

	for _, transport := range cfg.DriveCfg.Transports {
		switch transport {
		case TransportHTTP:
			senders = append(senders, NewHTTPSender(cfg.ServerCfg.DriveURL, cfg.ServerCfg.PilotURL))
		case TransportSocketIO:
			if emitter == nil {
				return built, fmt.Errorf("%s transport needs a relay connection", transport)
			}
			senders = append(senders, NewSocketSender(emitter))
		case TransportWebRTC:
			if emitter == nil {
				return built, fmt.Errorf("%s transport needs a relay connection for signalling", transport)
			}
			built.WebRTC = NewWebRTCSender(cfg.WebRTCCfg, cfg.ServerCfg.VehicleID, session, emitter, logger)
			senders = append(senders, built.WebRTC)
		case TransportServo:
			driver, err := NewCommandDriver(cfg.CommandCfg, logger)
			if err != nil {
				return built, err
			}
			err = driver.Init()
			if err != nil {
				return built, fmt.Errorf("failed initializing %s command driver: %w", cfg.CommandCfg.CommandDriver, err)
			}
			senders = append(senders, NewServoSender(driver))
		default:
			return built, fmt.Errorf("unsupported transport %q", transport)
		}
		logger.Infof("using %s transport", transport)
	}

	switch len(senders) {
	case 0:
		return built, fmt.Errorf("no transports configured")
	case 1:
		built.Sender = senders[0]
	default:
		built.Sender = NewFanOut(senders...)
	}
	return built, nil
}

func NewCommandDriver(cfg config.CommandConfig, logger *zap.SugaredLogger) (command.Driver, error) {
	switch cfg.CommandDriver {
	case "pca9685":
		return pca9685.NewCommandDriver(cfg, logger), nil
	case "pi_pwm", "pipwm":
		return pipwm.NewCommandDriver(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported command driver %q", cfg.CommandDriver)
	}
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/dispatch"
	"github.com/Speshl/gorrc_drive/internal/drive"
	"github.com/Speshl/gorrc_drive/internal/hud"
	"github.com/Speshl/gorrc_drive/internal/input"
	"github.com/Speshl/gorrc_drive/internal/models"
	"github.com/Speshl/gorrc_drive/internal/speaker"
)

const ConnectEvent = "drive_connect"

var ErrShutdown = errors.New("shutdown requested")

// RelayClient is the socket.io connection to the relay server
type RelayClient interface {
	input.EventRegistrar
	dispatch.Emitter
	Connect() error
	Close() error
}

type App struct {
	cfg     config.Config
	logger  *zap.SugaredLogger
	client  RelayClient
	session uuid.UUID

	senders    dispatch.Senders
	dispatcher *dispatch.Dispatcher
	controller *drive.Controller
	relay      *input.Relay
	gamepad    *input.Gamepad
	keyboard   *input.Keyboard
	hud        *hud.Hud
	speaker    *speaker.Speaker
}

// NewApp wires the drive session together. client may be nil when no relay server is used.
func NewApp(cfg config.Config, client RelayClient, hudOut io.Writer, logger *zap.SugaredLogger) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		session: uuid.New(),
	}

	var emitter dispatch.Emitter
	if client != nil {
		emitter = client
	}
	senders, err := dispatch.BuildSenders(cfg, emitter, a.session, logger)
	if err != nil {
		return nil, fmt.Errorf("error building senders - %w", err)
	}
	a.senders = senders
	a.dispatcher = dispatch.NewDispatcher(senders.Sender, cfg.DriveCfg.QueueSize, logger)
	a.speaker = speaker.NewSpeaker(cfg.SpeakerCfg, logger)
	a.hud = hud.NewHud(cfg.HudCfg, hudOut, logger)

	opts := []drive.ControllerOption{
		drive.WithSession(a.session),
		drive.WithAnnouncer(a.speaker),
	}
	if cfg.GamepadCfg.Enabled {
		a.gamepad = input.NewGamepad(cfg.GamepadCfg, logger)
		opts = append(opts, drive.WithGamepadReader(a.gamepad))
	}
	a.controller = drive.NewController(cfg, a.dispatcher, logger, opts...)

	a.dispatcher.OnSent(func(cmd models.DriveCommand) {
		a.hud.Render(cmd, a.controller.Snapshot())
	})

	a.relay = input.NewRelay(a.controller, logger)
	if senders.WebRTC != nil {
		a.relay.OnAnswer(senders.WebRTC.HandleAnswer)
		senders.WebRTC.OnHud(a.hud.SetRemote)
	}

	if cfg.KeyboardCfg.Enabled {
		a.keyboard = input.NewKeyboard(os.Stdin, a.controller, logger)
	}
	return a, nil
}

func (a *App) Controller() *drive.Controller {
	return a.controller
}

// RegisterHandlers hooks relay events up and connects to the relay server
func (a *App) RegisterHandlers() error {
	if a.client == nil {
		a.logger.Info("no relay server configured, browser input disabled")
		return nil
	}

	a.logger.Info("registering handlers")
	a.relay.Register(a.client)

	a.logger.Infof("attempting to connect to relay server %s...", a.cfg.ServerCfg.Server)
	err := a.client.Connect() //Client must have at least 1 event handler to work
	if err != nil {
		return fmt.Errorf("error connecting to server - %w", err)
	}
	a.logger.Info("connected to relay server")
	return nil
}

func (a *App) Start(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(ctx)
	a.logger.Infof("starting drive session %s", a.session)

	defer func() {
		err = multierr.Append(err, a.stop())
	}()

	//kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalChannel)
		select {
		case sig := <-signalChannel:
			a.logger.Infof("received signal: %s", sig)
			return fmt.Errorf("received signal %s: %w", sig, ErrShutdown)
		case <-groupCtx.Done():
			return groupCtx.Err()
		}
	})

	group.Go(func() error {
		return a.dispatcher.Start(groupCtx)
	})

	group.Go(func() error {
		return a.speaker.Start(groupCtx)
	})

	group.Go(func() error {
		err := a.controller.Start(groupCtx)
		if err != nil {
			return fmt.Errorf("failed starting drive controller: %w", err)
		}
		<-groupCtx.Done()
		a.controller.Stop()
		return groupCtx.Err()
	})

	if a.gamepad != nil {
		group.Go(func() error {
			err := a.gamepad.Start(groupCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				// the other inputs keep working without a pad
				a.logger.Errorf("gamepad stopped: %s", err)
				a.hud.Warn(fmt.Sprintf("gamepad unavailable: %s", err))
			}
			return nil
		})
	}

	if a.keyboard != nil {
		group.Go(func() error {
			err := a.keyboard.Start(groupCtx)
			if errors.Is(err, input.ErrInterrupted) {
				return fmt.Errorf("%w: %s", ErrShutdown, err)
			}
			return err
		})
	}

	if a.client != nil {
		group.Go(func() error {
			encodedMsg, err := json.Marshal(models.ConnectReq{
				Key:      a.cfg.ServerCfg.Key,
				Password: a.cfg.ServerCfg.Password,
				Session:  a.session,
			})
			if err != nil {
				return fmt.Errorf("failed encoding connect request: %w", err)
			}
			a.client.Emit(ConnectEvent, string(encodedMsg))
			return nil
		})
	}

	if a.senders.WebRTC != nil {
		group.Go(func() error {
			err := a.senders.WebRTC.Connect(groupCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Errorf("webrtc connect failed, commands over webrtc will be dropped: %s", err)
				a.hud.Warn("webrtc unavailable")
			}
			return nil
		})
	}

	a.speaker.Announce("startup")

	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrShutdown) {
		return fmt.Errorf("drive stopping due to error - %w", err)
	}
	a.logger.Info("shutting down")
	return nil
}

// stop leaves the car stopped and releases transports
func (a *App) stop() error {
	stopped := drive.NewState(a.cfg.DriveCfg).Command()
	if sendErr := a.senders.Sender.SendDrive(context.Background(), stopped); sendErr != nil {
		a.logger.Warnf("failed sending final stop command: %s", sendErr)
	}

	err := a.senders.Sender.Close()
	if a.client != nil {
		err = multierr.Append(err, a.client.Close())
	}
	return err
}

// NewRelayClient connects to the relay server over socket.io
func NewRelayClient(cfg config.ServerConfig) (*socketio.Client, error) {
	socketURI := fmt.Sprintf("http://%s", cfg.Server)
	client, err := socketio.NewClient(socketURI, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating client - %w", err)
	}
	return client, nil
}

package speaker

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/Speshl/gorrc_drive/internal/config"
)

var soundMap = map[string]string{
	"startup":  "./internal/speaker/audio/startup.wav",
	"shutdown": "./internal/speaker/audio/shutting_down.wav",
	"brake":    "./internal/speaker/audio/brake.wav",
	"engage":   "./internal/speaker/audio/engage.wav",
}

// Player runs the external audio player
type Player func(ctx context.Context, device, path string) error

type Speaker struct {
	soundChannel chan string
	cfg          config.SpeakerConfig
	logger       *zap.SugaredLogger
	play         Player
}

func NewSpeaker(cfg config.SpeakerConfig, logger *zap.SugaredLogger) *Speaker {
	return &Speaker{
		soundChannel: make(chan string, 10),
		cfg:          cfg,
		logger:       logger,
		play:         aplay,
	}
}

func (s *Speaker) WithPlayer(play Player) *Speaker {
	s.play = play
	return s
}

// Announce queues a cue without blocking the caller. Cues are dropped when the queue is full.
func (s *Speaker) Announce(sound string) {
	if !s.cfg.Enabled {
		return
	}
	select {
	case s.soundChannel <- sound:
	default:
		s.logger.Debugf("speaker busy, skipping %s sound", sound)
	}
}

func (s *Speaker) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("speaker done due to ctx")
			return nil
		case data, ok := <-s.soundChannel:
			if !ok {
				s.logger.Info("speaker channel closed, stopping")
				return nil
			}

			err := s.Play(ctx, data)
			if err != nil {
				s.logger.Warnf("failed to play sound - %s", err)
			}
		}
	}
}

func (s *Speaker) Play(ctx context.Context, sound string) error {
	if !s.cfg.Enabled {
		s.logger.Debugf("speaker disabled, not playing %s sound", sound)
		return nil
	}

	soundPath, ok := soundMap[sound]
	if !ok {
		return fmt.Errorf("sound not found: %s", sound)
	}

	s.logger.Debugf("start playing %s sound", sound)
	defer s.logger.Debugf("finished playing %s sound", sound)
	return s.play(ctx, s.cfg.Device, soundPath)
}

func aplay(ctx context.Context, device, path string) error {
	args := []string{}
	if device != "" {
		args = append(args, "-D", device)
	}
	args = append(args, "-q", path)

	cmd := exec.CommandContext(ctx, "aplay", args...)
	err := cmd.Start()
	if err != nil {
		return fmt.Errorf("error starting audio playback - %w", err)
	}
	err = cmd.Wait()
	if err != nil {
		return fmt.Errorf("error during audio playback - %w", err)
	}
	return nil
}

package speaker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Speshl/gorrc_drive/internal/config"
)

type playRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (p *playRecorder) play(_ context.Context, device, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, device+":"+path)
	return nil
}

func (p *playRecorder) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

func TestSpeaker_PlaysAnnouncedCues(t *testing.T) {
	recorder := &playRecorder{}
	s := NewSpeaker(config.SpeakerConfig{Enabled: true, Device: "default"}, zaptest.NewLogger(t).Sugar()).WithPlayer(recorder.play)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	s.Announce("brake")
	s.Announce("engage")
	require.Eventually(t, func() bool { return len(recorder.played()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{
		"default:./internal/speaker/audio/brake.wav",
		"default:./internal/speaker/audio/engage.wav",
	}, recorder.played())
}

func TestSpeaker_Disabled(t *testing.T) {
	recorder := &playRecorder{}
	s := NewSpeaker(config.SpeakerConfig{Enabled: false}, zaptest.NewLogger(t).Sugar()).WithPlayer(recorder.play)

	s.Announce("brake")
	assert.Empty(t, s.soundChannel)
	require.NoError(t, s.Play(context.Background(), "brake"))
	assert.Empty(t, recorder.played())
}

func TestSpeaker_UnknownSound(t *testing.T) {
	s := NewSpeaker(config.SpeakerConfig{Enabled: true}, zaptest.NewLogger(t).Sugar()).WithPlayer((&playRecorder{}).play)
	require.Error(t, s.Play(context.Background(), "horn"))
}

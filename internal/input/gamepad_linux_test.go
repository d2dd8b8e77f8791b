//go:build linux

package input

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Speshl/gorrc_drive/internal/config"
)

func TestGamepad_StartMissingDevice(t *testing.T) {
	cfg := config.DefaultConfig().GamepadCfg
	cfg.Device = filepath.Join(t.TempDir(), "event99")
	pad := NewGamepad(cfg, zaptest.NewLogger(t).Sugar())

	err := pad.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.Device)

	_, ok := pad.Axes()
	assert.False(t, ok)
}

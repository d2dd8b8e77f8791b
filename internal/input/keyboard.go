package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Speshl/gorrc_drive/internal/drive"
)

var ErrInterrupted = errors.New("interrupted from keyboard")

const ctrlC = 0x03

type KeyHandler interface {
	Key(drive.KeyAction)
}

// Keyboard reads single key presses from a terminal in raw mode
type Keyboard struct {
	in      *os.File
	handler KeyHandler
	logger  *zap.SugaredLogger
}

func NewKeyboard(in *os.File, handler KeyHandler, logger *zap.SugaredLogger) *Keyboard {
	return &Keyboard{
		in:      in,
		handler: handler,
		logger:  logger,
	}
}

// Start puts the terminal in raw mode and forwards keys until ctx is done or ctrl-c is pressed.
// Without a terminal it returns immediately. A cancelled ctx does not unblock the pending stdin
// read, so the reader goroutine lingers until the next key or process exit.
func (k *Keyboard) Start(ctx context.Context) error {
	fd := int(k.in.Fd())
	if !term.IsTerminal(fd) {
		k.logger.Info("stdin is not a terminal, keyboard input disabled")
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed setting terminal raw mode: %w", err)
	}
	defer func() {
		err := term.Restore(fd, oldState)
		if err != nil {
			k.logger.Warnf("failed restoring terminal: %s", err)
		}
	}()

	k.logger.Info("keyboard ready: i/k throttle, j/l steer, space brake, r record, a/d/s drive mode")

	// Read blocks, so it runs on its own and the result is collected here
	result := make(chan error, 1)
	go func() {
		result <- k.Listen(ctx, k.in)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-result:
		return err
	}
}

// Listen forwards keys read from r until ctx is done, r ends, or ctrl-c is read
func (k *Keyboard) Listen(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 1)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := r.Read(buf)
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed reading keyboard: %w", err)
		}

		if buf[0] == ctrlC {
			return ErrInterrupted
		}

		action := drive.ParseKey(string(buf[:1]))
		if action == drive.KeyNone {
			continue
		}
		k.logger.Debugf("key: %s", action)
		k.handler.Key(action)
	}
}

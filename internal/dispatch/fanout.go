package dispatch

import (
	"context"

	"go.uber.org/multierr"

	"github.com/Speshl/gorrc_drive/internal/models"
)

// FanOut sends every command to all senders. One failing sender does not stop the others.
type FanOut struct {
	senders []Sender
}

func NewFanOut(senders ...Sender) *FanOut {
	return &FanOut{
		senders: senders,
	}
}

func (f *FanOut) SendDrive(ctx context.Context, cmd models.DriveCommand) error {
	var err error
	for _, sender := range f.senders {
		err = multierr.Append(err, sender.SendDrive(ctx, cmd))
	}
	return err
}

func (f *FanOut) SendPilot(ctx context.Context, cmd models.PilotCommand) error {
	var err error
	for _, sender := range f.senders {
		err = multierr.Append(err, sender.SendPilot(ctx, cmd))
	}
	return err
}

func (f *FanOut) Close() error {
	var err error
	for _, sender := range f.senders {
		err = multierr.Append(err, sender.Close())
	}
	return err
}

package dispatch

import (
	"context"

	"github.com/Speshl/gorrc_drive/internal/models"
)

const (
	DriveEvent = "drive"
	PilotEvent = "pilot"
	OfferEvent = "offer"
)

// Emitter is the outbound half of a socket.io client
type Emitter interface {
	Emit(event string, args ...interface{})
}

// SocketSender emits commands as events on the relay server connection
type SocketSender struct {
	emitter Emitter
}

func NewSocketSender(emitter Emitter) *SocketSender {
	return &SocketSender{
		emitter: emitter,
	}
}

func (s *SocketSender) SendDrive(ctx context.Context, cmd models.DriveCommand) error {
	return s.emit(ctx, DriveEvent, cmd)
}

func (s *SocketSender) SendPilot(ctx context.Context, cmd models.PilotCommand) error {
	return s.emit(ctx, PilotEvent, cmd)
}

// Close is a no-op, the app owns the socket.io client
func (s *SocketSender) Close() error {
	return nil
}

func (s *SocketSender) emit(ctx context.Context, event string, body any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encode(body)
	if err != nil {
		return err
	}
	s.emitter.Emit(event, encoded)
	return nil
}

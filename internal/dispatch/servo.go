package dispatch

import (
	"context"

	"github.com/Speshl/gorrc_drive/internal/command"
	"github.com/Speshl/gorrc_drive/internal/models"
)

// ServoSender drives servos wired to this machine instead of a remote vehicle
type ServoSender struct {
	driver command.Driver
}

func NewServoSender(driver command.Driver) *ServoSender {
	return &ServoSender{
		driver: driver,
	}
}

func (s *ServoSender) SendDrive(ctx context.Context, cmd models.DriveCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.driver.SetMany(BuildServoCommands(cmd))
}

// SendPilot is a no-op, there is no autopilot on the local servo path
func (s *ServoSender) SendPilot(context.Context, models.PilotCommand) error {
	return nil
}

func (s *ServoSender) Close() error {
	return s.driver.Stop()
}

func BuildServoCommands(cmd models.DriveCommand) []command.DriverCommand {
	return []command.DriverCommand{
		{
			Name:  command.EscServo,
			Value: cmd.Throttle,
			Min:   -1.0,
			Max:   1.0,
		},
		{
			Name:  command.SteerServo,
			Value: cmd.Angle,
			Min:   -1.0,
			Max:   1.0,
		},
	}
}

package command

import (
	"fmt"

	"github.com/Speshl/gorrc_drive/internal/config"
)

const (
	SteerServo = "steer"
	EscServo   = "esc"
)

type DriverCommand struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// Driver moves local servos. Commands for servos that were not configured are ignored.
type Driver interface {
	Init() error
	Set(DriverCommand) error
	SetMany([]DriverCommand) error
	CenterAll()
	Stop() error
}

func MapToRange(value, min, max, minReturn, maxReturn float64) float64 {
	mappedValue := (maxReturn-minReturn)*(value-min)/(max-min) + minReturn

	if mappedValue > maxReturn {
		return maxReturn
	} else if mappedValue < minReturn {
		return minReturn
	} else {
		return mappedValue
	}
}

// ValidateServos checks the servo table before any hardware is touched
func ValidateServos(cfg config.CommandConfig, maxServos int) error {
	seen := make(map[string]struct{}, len(cfg.ServoCfgs))
	for _, servo := range cfg.ServoCfgs {
		if servo.Name == "" {
			return fmt.Errorf("servo on channel %d has no name", servo.Channel)
		}
		if _, ok := seen[servo.Name]; ok {
			return fmt.Errorf("servo %s configured twice", servo.Name)
		}
		seen[servo.Name] = struct{}{}
		if servo.MinPulse >= servo.MaxPulse {
			return fmt.Errorf("servo %s min pulse %.0f must be below max pulse %.0f", servo.Name, servo.MinPulse, servo.MaxPulse)
		}
	}
	if len(cfg.ServoCfgs) > maxServos {
		return fmt.Errorf("%d servos configured, driver supports %d", len(cfg.ServoCfgs), maxServos)
	}
	return nil
}

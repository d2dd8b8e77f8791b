//go:build !linux

package input

import "context"

func (g *Gamepad) Start(ctx context.Context) error {
	return ErrGamepadUnsupported
}

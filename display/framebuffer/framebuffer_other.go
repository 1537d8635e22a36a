//go:build !linux

package framebuffer

import (
	"errors"

	"github.com/BeatGlow/pixelclock/display"
)

var ErrNotSupported = errors.New("framebuffer: not supported")

func Open(_ string, _ display.Rotation) (display.Display, error) {
	return nil, ErrNotSupported
}

// Package framebuffer provides access to the operating system's native framebuffer
//
// This requires framebuffer device support in the operating system. The framebuffer
// can be opened with the [Open] call, and will otherwise function like a regular
// display. Rotation, scaling and brightness are applied in software.
package framebuffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/BeatGlow/pixelclock/pixel"
)

// ErrFormat is returned for framebuffers with an unsupported pixel layout.
var ErrFormat = errors.New("framebuffer: unsupported color model")

// Format is the in-memory pixel layout of a framebuffer.
type Format uint8

// Supported formats.
const (
	UnknownFormat Format = iota
	RGB565               // 16 bits, red in the high bits
	BGR565               // 16 bits, blue in the high bits
	XRGB8888             // 32 bits, blue in the lowest byte
	XBGR8888             // 32 bits, red in the lowest byte
)

func (f Format) String() string {
	switch f {
	case RGB565:
		return "RGB565"
	case BGR565:
		return "BGR565"
	case XRGB8888:
		return "XRGB8888"
	case XBGR8888:
		return "XBGR8888"
	default:
		return "unknown"
	}
}

// BytesPerPixel is the size of one pixel in memory.
func (f Format) BytesPerPixel() int {
	switch f {
	case RGB565, BGR565:
		return 2
	case XRGB8888, XBGR8888:
		return 4
	default:
		return 0
	}
}

// BitField describes where one color channel lives in a pixel.
type BitField struct {
	Offset, Length uint32
}

// ParseFormat detects the pixel layout from the channel bit fields reported
// by the kernel.
func ParseFormat(bitsPerPixel uint32, red, green, blue BitField) (Format, error) {
	switch bitsPerPixel {
	case 16:
		if green.Offset != 5 || green.Length != 6 || red.Length != 5 || blue.Length != 5 {
			break
		}
		switch {
		case red.Offset == 11 && blue.Offset == 0:
			return RGB565, nil
		case blue.Offset == 11 && red.Offset == 0:
			return BGR565, nil
		}

	case 24, 32:
		if green.Offset != 8 || green.Length != 8 || red.Length != 8 || blue.Length != 8 {
			break
		}
		switch {
		case red.Offset == 16 && blue.Offset == 0:
			return XRGB8888, nil
		case blue.Offset == 16 && red.Offset == 0:
			return XBGR8888, nil
		}
	}
	return UnknownFormat, fmt.Errorf("%w: %d bpp, red %d/%d, green %d/%d, blue %d/%d", ErrFormat,
		bitsPerPixel, red.Offset, red.Length, green.Offset, green.Length, blue.Offset, blue.Length)
}

// blit writes frame at origin into a little endian framebuffer memory
// region, dimming every channel by brightness/255.
func blit(dst []byte, stride int, format Format, origin image.Point, frame *pixel.CRGB16Image, brightness uint8) {
	var (
		bounds = frame.Bounds()
		bpp    = format.BytesPerPixel()
	)
	for y := 0; y < bounds.Dy(); y++ {
		row := (origin.Y+y)*stride + origin.X*bpp
		if row < 0 || row+bounds.Dx()*bpp > len(dst) {
			return
		}
		for x := 0; x < bounds.Dx(); x++ {
			c := frame.CRGB16At(bounds.Min.X+x, bounds.Min.Y+y)
			if brightness < 0xff {
				c = pixel.Blend(pixel.Black, c, brightness)
			}
			out := dst[row+x*bpp:]
			switch format {
			case RGB565:
				binary.LittleEndian.PutUint16(out, c.V)
			case BGR565:
				r, g, b := c.RGB()
				binary.LittleEndian.PutUint16(out, uint16(b)<<11|uint16(g)<<5|uint16(r))
			case XRGB8888:
				r, g, b := c.RGB888()
				out[0], out[1], out[2], out[3] = b, g, r, 0xff
			case XBGR8888:
				r, g, b := c.RGB888()
				out[0], out[1], out[2], out[3] = r, g, b, 0xff
			}
		}
	}
}

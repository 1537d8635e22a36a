package matrix

import (
	"fmt"

	"github.com/BeatGlow/pixelclock/pixel"
)

// Mode selects how the overlay is merged with the background.
type Mode int

// Composition modes.
const (
	Stack      Mode = iota // Overlay drawn on top of the background
	Blend                  // Overlay mixed with the background
	Silhouette             // Overlay cuts holes into a solid color
)

// ParseMode maps a persisted or wire value to a Mode, unknown values are Stack.
func ParseMode(n int) Mode {
	switch m := Mode(n); m {
	case Stack, Blend, Silhouette:
		return m
	default:
		return Stack
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= Stack && m <= Silhouette
}

func (m Mode) String() string {
	switch m {
	case Stack:
		return "stack"
	case Blend:
		return "blend"
	case Silhouette:
		return "silhouette"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DefaultBlendRatio weighs background and overlay equally.
const DefaultBlendRatio = 128

// Compositor merges a background and an overlay layer into a frame.
type Compositor struct {
	// BlendRatio is the overlay weight in Blend mode, out of 255.
	BlendRatio uint8

	// Silhouette is shown wherever the overlay is not drawn in Silhouette mode.
	Silhouette pixel.CRGB16
}

// Compose writes the merged layers to dst. All images must have the same
// bounds. Unknown modes compose as Stack.
func (c *Compositor) Compose(dst *pixel.CRGB16Image, bg, overlay *pixel.Layer, mode Mode) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetCRGB16(x, y, c.at(x, y, bg, overlay, mode))
		}
	}
}

func (c *Compositor) at(x, y int, bg, overlay *pixel.Layer, mode Mode) pixel.CRGB16 {
	covered := overlay.Covered(x, y)
	switch mode {
	case Blend:
		if covered {
			return pixel.Blend(bg.CRGB16At(x, y), overlay.CRGB16At(x, y), c.BlendRatio)
		}
		return bg.CRGB16At(x, y)
	case Silhouette:
		if covered {
			return bg.CRGB16At(x, y)
		}
		return c.Silhouette
	default:
		if covered {
			return overlay.CRGB16At(x, y)
		}
		return bg.CRGB16At(x, y)
	}
}

// Package display contains drivers for the physical output of the matrix.
//
// Every driver accepts complete 5-6-5 frames through Present. Frames smaller
// than the panel are scaled up by the largest integer factor that fits and
// centered.
package display

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/pixelclock/pixel"
)

// Errors
var (
	ErrBounds   = errors.New("display: frame does not fit the display")
	ErrRotation = errors.New("display: invalid rotation")
)

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

// ParseRotation converts clockwise degrees to a Rotation.
func ParseRotation(degrees int) (Rotation, error) {
	switch degrees {
	case 0:
		return NoRotation, nil
	case 90:
		return Rotate90, nil
	case 180:
		return Rotate180, nil
	case 270:
		return Rotate270, nil
	default:
		return NoRotation, fmt.Errorf("%w: %d°", ErrRotation, degrees)
	}
}

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// Display is a physical output.
type Display interface {
	// Close the display driver.
	Close() error

	// Bounds is the display bounding box (dimensions).
	Bounds() image.Rectangle

	// Show toggles the display on or off.
	Show(bool) error

	// SetBrightness adjusts the brightness, 0 is off and 255 is full.
	SetBrightness(level uint8) error

	// SetRotation adjusts the pixel rotation.
	SetRotation(Rotation) error

	// Present shows a frame.
	Present(frame *pixel.CRGB16Image) error
}

// Config is the display configuration.
type Config struct {
	// Width of the display in pixels.
	Width int

	// Height of the display in pixels.
	Height int

	// Rotation of the display.
	Rotation Rotation

	// Backlight pin, optional.
	Backlight gpio.PinOut
}

// Fit returns the integer scale factor and top left corner that place a
// frame of size src centered on a display of size dst.
func Fit(src, dst image.Point) (scale int, origin image.Point, err error) {
	if src.X <= 0 || src.Y <= 0 || src.X > dst.X || src.Y > dst.Y {
		return 0, image.Point{}, fmt.Errorf("%w: %s on %s", ErrBounds, src, dst)
	}
	scale = min(dst.X/src.X, dst.Y/src.Y)
	origin = image.Pt((dst.X-src.X*scale)/2, (dst.Y-src.Y*scale)/2)
	return scale, origin, nil
}

// Upscale returns frame enlarged by scale using nearest neighbour sampling.
// A scale of 1 returns frame itself.
func Upscale(frame *pixel.CRGB16Image, scale int) *pixel.CRGB16Image {
	if scale <= 1 {
		return frame
	}
	b := frame.Bounds()
	out := pixel.NewCRGB16Image(b.Dx()*scale, b.Dy()*scale)
	out.Order = frame.Order
	for y := 0; y < b.Dy(); y++ {
		row := out.Pix[y*scale*out.Stride : (y*scale+1)*out.Stride]
		for x := 0; x < b.Dx(); x++ {
			src := frame.Pix[y*frame.Stride+x*2 : y*frame.Stride+x*2+2]
			for i := 0; i < scale; i++ {
				copy(row[(x*scale+i)*2:], src)
			}
		}
		for i := 1; i < scale; i++ {
			copy(out.Pix[(y*scale+i)*out.Stride:], row)
		}
	}
	return out
}

// Rotate returns frame rotated clockwise by r. NoRotation returns frame
// itself.
func Rotate(frame *pixel.CRGB16Image, r Rotation) *pixel.CRGB16Image {
	r %= 4
	if r == NoRotation {
		return frame
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	var out *pixel.CRGB16Image
	if r == Rotate180 {
		out = pixel.NewCRGB16Image(w, h)
	} else {
		out = pixel.NewCRGB16Image(h, w)
	}
	out.Order = frame.Order
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := frame.CRGB16At(b.Min.X+x, b.Min.Y+y)
			switch r {
			case Rotate90:
				out.SetCRGB16(h-1-y, x, c)
			case Rotate180:
				out.SetCRGB16(w-1-x, h-1-y, c)
			case Rotate270:
				out.SetCRGB16(y, w-1-x, c)
			}
		}
	}
	return out
}

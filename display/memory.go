package display

import (
	"fmt"
	"image"
	"sync"

	"github.com/BeatGlow/pixelclock/pixel"
)

// Memory is a display that keeps the last presented frame in memory. It is
// used on hosts without a panel and in tests.
type Memory struct {
	mu         sync.Mutex
	frame      *pixel.CRGB16Image
	rotation   Rotation
	brightness uint8
	shown      bool
	frames     int
}

// NewMemory returns a memory display of the configured size.
func NewMemory(config *Config) (*Memory, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("display: invalid size %dx%d", config.Width, config.Height)
	}
	w, h := config.Width, config.Height
	if config.Rotation%2 == 1 {
		w, h = h, w
	}
	return &Memory{
		frame:      pixel.NewCRGB16Image(w, h),
		rotation:   config.Rotation,
		brightness: 255,
		shown:      true,
	}, nil
}

func (d *Memory) String() string {
	b := d.Bounds()
	return fmt.Sprintf("memory %dx%d", b.Dx(), b.Dy())
}

// Close the display.
func (d *Memory) Close() error {
	return nil
}

// Bounds is the display bounding box.
func (d *Memory) Bounds() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame.Bounds()
}

// Show toggles the display on or off.
func (d *Memory) Show(show bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = show
	return nil
}

// SetBrightness records the brightness level.
func (d *Memory) SetBrightness(level uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brightness = level
	return nil
}

// Brightness returns the last brightness level.
func (d *Memory) Brightness() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// SetRotation records the rotation applied to presented frames.
func (d *Memory) SetRotation(rotation Rotation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rotation %= 4
	if rotation%2 != d.rotation%2 {
		b := d.frame.Bounds()
		d.frame = pixel.NewCRGB16Image(b.Dy(), b.Dx())
	}
	d.rotation = rotation
	return nil
}

// Present copies frame into memory.
func (d *Memory) Present(frame *pixel.CRGB16Image) error {
	frame = Rotate(frame, d.rotation)
	d.mu.Lock()
	defer d.mu.Unlock()
	if !frame.Bounds().Size().Eq(d.frame.Bounds().Size()) {
		return fmt.Errorf("%w: %s on %s", ErrBounds, frame.Bounds().Size(), d.frame.Bounds().Size())
	}
	copy(d.frame.Pix, frame.Pix)
	d.frames++
	return nil
}

// Frame returns a copy of the last presented frame and the number of frames
// presented so far.
func (d *Memory) Frame() (*pixel.CRGB16Image, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.frame.Bounds()
	out := pixel.NewCRGB16Image(b.Dx(), b.Dy())
	copy(out.Pix, d.frame.Pix)
	return out, d.frames
}

var _ Display = (*Memory)(nil)

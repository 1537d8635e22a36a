package matrix

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/BeatGlow/pixelclock/draw"
	"github.com/BeatGlow/pixelclock/pixel"
	"github.com/BeatGlow/pixelclock/text"
)

// Errors
var (
	ErrSize = errors.New("matrix: invalid panel size")
)

var (
	progressFrame = pixel.CRGB16{V: 0xffff}
	progressBar   = pixel.CRGB16{V: 0x07e0}
)

// Point is a colored pixel coordinate.
type Point struct {
	X, Y  int
	Color pixel.CRGB16
}

// Config is the controller configuration.
type Config struct {
	// Width of the panel in pixels.
	Width int

	// Height of the panel in pixels.
	Height int

	// Compositor used by Render; the zero value stacks with a black silhouette.
	Compositor Compositor

	// Mode is the initial composition mode.
	Mode Mode

	// Location used to expand time directives, nil is UTC.
	Location *time.Location

	// Text is the initial overlay, nil selects text.DefaultItems.
	Text []text.Item
}

// Controller owns the background layer, the overlay layer and the overlay text.
// All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	bg       *pixel.Layer
	overlay  *pixel.Layer
	comp     Compositor
	mode     Mode
	items    []text.Item
	visible  bool
	loc      *time.Location
	text     *text.Renderer
	splash   string
	splashTo time.Time
	progress int
	barTo    time.Time
}

// NewController returns a controller with a cleared background and the
// overlay visible.
func NewController(config Config) (*Controller, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSize, config.Width, config.Height)
	}
	items := config.Text
	if items == nil {
		items = text.DefaultItems()
	}
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Controller{
		bg:      pixel.NewLayer(config.Width, config.Height),
		overlay: pixel.NewLayer(config.Width, config.Height),
		comp:    config.Compositor,
		mode:    ParseMode(int(config.Mode)),
		items:   text.Normalize(items),
		visible: true,
		loc:     loc,
		text:    text.NewRenderer(),
	}, nil
}

// Size returns the panel dimensions.
func (c *Controller) Size() (width, height int) {
	b := c.bg.Bounds()
	return b.Dx(), b.Dy()
}

// SetPixels draws points onto the background; points outside the panel are
// skipped.
func (c *Controller) SetPixels(points ...Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range points {
		c.bg.SetCRGB16(p.X, p.Y, p.Color)
	}
}

// DrawImage replaces the background with colors in row-major order. Missing
// trailing pixels keep their value, excess colors are ignored.
func (c *Controller) DrawImage(colors []pixel.CRGB16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, h := c.bg.Bounds().Dx(), c.bg.Bounds().Dy()
	for i, color := range colors {
		if i >= w*h {
			break
		}
		c.bg.SetCRGB16(i%w, i/w, color)
	}
}

// Clear clears the background and the overlay.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bg.Clear()
	c.overlay.Clear()
}

// Fill paints the whole background.
func (c *Controller) Fill(color pixel.CRGB16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bg.Fill(color)
}

// SetOverlayVisible shows or hides the text overlay. The overlay is cleared
// either way and redrawn on the next render when visible.
func (c *Controller) SetOverlayVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = visible
	c.overlay.Clear()
}

// OverlayVisible reports whether the text overlay is drawn.
func (c *Controller) OverlayVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// SetText replaces all overlay text items.
func (c *Controller) SetText(items []text.Item) {
	items = text.Normalize(items)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

// Text returns a copy of the overlay text items.
func (c *Controller) Text() []text.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]text.Item(nil), c.items...)
}

// SetMode selects the composition mode; unknown modes are stored as Stack.
func (c *Controller) SetMode(mode Mode) Mode {
	mode = ParseMode(int(mode))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	return mode
}

// Mode returns the composition mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetLocation sets the timezone used for time directives.
func (c *Controller) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loc = loc
}

// Location returns the timezone used for time directives.
func (c *Controller) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

// SetLocale selects the language of day and month names.
func (c *Controller) SetLocale(tag language.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text.SetLocale(tag)
}

// ShowSplash replaces the text overlay with msg until the given time.
func (c *Controller) ShowSplash(msg string, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.splash = msg
	c.splashTo = until
}

// ShowProgress replaces the overlay with a progress bar at percent until the
// given time. A negative percent removes the bar.
func (c *Controller) ShowProgress(percent int, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if percent < 0 {
		c.barTo = time.Time{}
		c.overlay.Clear()
		return
	}
	c.progress = min(percent, 100)
	c.barTo = until
}

// Background returns a snapshot of the background layer.
func (c *Controller) Background() *pixel.Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, h := c.Size()
	snap := pixel.NewLayer(w, h)
	snap.CopyFrom(c.bg)
	return snap
}

// drawProgress draws a framed bar over the bottom rows of the overlay.
func (c *Controller) drawProgress() {
	b := c.overlay.Bounds()
	frame := image.Rect(b.Min.X, b.Max.Y-min(4, b.Dy()), b.Max.X, b.Max.Y)
	draw.Rectangle(c.overlay, frame, progressFrame)
	inner := frame.Inset(1)
	inner.Max.X = inner.Min.X + inner.Dx()*c.progress/100
	draw.Box(c.overlay, inner, progressBar)
}

// Render redraws the overlay for now and composes both layers into dst.
func (c *Controller) Render(now time.Time, dst *pixel.CRGB16Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.splash != "" && !now.Before(c.splashTo) {
		c.splash = ""
		c.overlay.Clear()
	}

	if !c.barTo.IsZero() && !now.Before(c.barTo) {
		c.barTo = time.Time{}
		c.overlay.Clear()
	}

	switch {
	case !c.barTo.IsZero():
		c.overlay.Clear()
		c.drawProgress()
	case c.splash != "":
		c.overlay.Clear()
		c.text.Draw(c.overlay, c.splash, text.Item{
			Color: pixel.CRGB16{V: 0xffff},
			Font:  text.FontSmall,
			Size:  1,
			Align: text.AlignCenter,
			Line:  text.LineMiddle,
		})
	case c.visible:
		c.overlay.Clear()
		c.text.Render(c.overlay, c.items, now.In(c.loc))
	}

	c.comp.Compose(dst, c.bg, c.overlay, c.mode)
}

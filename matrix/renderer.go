package matrix

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BeatGlow/pixelclock/pixel"
)

// DefaultTick is the render interval.
const DefaultTick = 100 * time.Millisecond

// Panel is the physical output of the renderer.
type Panel interface {
	// SetBrightness sets the panel brightness, 0 is off and 255 is full.
	SetBrightness(level uint8) error

	// Present shows a frame.
	Present(frame *pixel.CRGB16Image) error
}

// Renderer periodically composes the controller layers and presents them on a
// panel.
type Renderer struct {
	ctrl    *Controller
	panel   Panel
	tick    time.Duration
	max     int
	log     *slog.Logger
	mu      sync.Mutex // guards panel and frame
	frame   *pixel.CRGB16Image
	failing bool
}

// NewRenderer returns a renderer presenting ctrl on panel every tick.
// Brightness levels passed to SetBrightness range from 0 to maxBrightness.
func NewRenderer(ctrl *Controller, panel Panel, tick time.Duration, maxBrightness int, logger *slog.Logger) *Renderer {
	if tick <= 0 {
		tick = DefaultTick
	}
	if maxBrightness <= 0 {
		maxBrightness = 255
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w, h := ctrl.Size()
	return &Renderer{
		ctrl:  ctrl,
		panel: panel,
		tick:  tick,
		max:   maxBrightness,
		log:   logger,
		frame: pixel.NewCRGB16Image(w, h),
	}
}

// Run renders a frame every tick until ctx is done.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	r.log.Debug("renderer started", "tick", r.tick)
	for {
		if err := r.Render(time.Now()); err != nil {
			if !r.failing {
				r.log.Warn("present failed", "error", err)
			}
			r.failing = true
		} else if r.failing {
			r.log.Info("present recovered")
			r.failing = false
		}

		select {
		case <-ctx.Done():
			r.log.Debug("renderer stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Render composes and presents a single frame.
func (r *Renderer) Render(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctrl.Render(now, r.frame)
	return r.panel.Present(r.frame)
}

// SetBrightness scales level from 0..max to the panel range.
func (r *Renderer) SetBrightness(level int) error {
	if level < 0 {
		level = 0
	} else if level > r.max {
		level = r.max
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panel.SetBrightness(uint8(level * 255 / r.max))
}

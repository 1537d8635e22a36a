// Package button turns edges of an active low push button into long press
// events.
package button

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrNotSupported is returned by Open on systems without the GPIO character
// device.
var ErrNotSupported = errors.New("button: not supported on this platform")

// Button tracks one push button. A press held at least Hold fires OnLongPress
// when it is released.
type Button struct {
	hold        time.Duration
	onLongPress func()
	log         *slog.Logger

	mu        sync.Mutex
	pressed   bool
	pressedAt time.Duration
}

// New returns a button firing onLongPress for presses of at least hold.
func New(hold time.Duration, onLongPress func(), logger *slog.Logger) *Button {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Button{
		hold:        hold,
		onLongPress: onLongPress,
		log:         logger,
	}
}

// Edge records a level change at the given monotonic timestamp. Repeated
// edges in the same direction are ignored.
func (b *Button) Edge(pressed bool, at time.Duration) {
	b.mu.Lock()
	if pressed == b.pressed {
		b.mu.Unlock()
		return
	}
	b.pressed = pressed
	if pressed {
		b.pressedAt = at
		b.mu.Unlock()
		return
	}
	held := at - b.pressedAt
	b.mu.Unlock()

	b.log.Debug("button released", "held", held)
	if held >= b.hold && b.onLongPress != nil {
		b.log.Info("button long press", "held", held)
		b.onLongPress()
	}
}

// Pressed reports whether the button is currently down.
func (b *Button) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// Package settings persists the user facing display settings.
//
// Settings live in a small JSON file. Comments and trailing commas are
// tolerated when reading so the file can be annotated by hand.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/jsonc"
)

// Defaults
const (
	DefaultTimezone = "CET-1CEST,M3.5.0,M10.5.0/3"
	DefaultLocale   = "en_US.UTF-8"
)

// Display settings.
type Display struct {
	Brightness      int `json:"brightness"`
	CompositionMode int `json:"compositionMode"`
}

// Time settings.
type Time struct {
	Timezone string `json:"timezone"`
	Locale   string `json:"locale"`
}

// CustomData configures the periodic fetch of remote data.
type CustomData struct {
	Enabled bool `json:"enabled"`

	// Interval between fetches in seconds, -1 when unset.
	Interval int    `json:"interval"`
	Server   string `json:"server"`
}

// Settings is the persisted configuration.
type Settings struct {
	Display    Display    `json:"display"`
	Time       Time       `json:"time"`
	CustomData CustomData `json:"customData"`
}

// Limits bound the brightness setting.
type Limits struct {
	Min     int
	Max     int
	Default int
}

// DefaultLimits are the limits of the reference panel.
var DefaultLimits = Limits{Min: 3, Max: 15, Default: 3}

// Clamp returns level bounded to [l.Min, l.Max].
func (l Limits) Clamp(level int) int {
	if level < l.Min {
		return l.Min
	}
	if level > l.Max {
		return l.Max
	}
	return level
}

// Default returns the settings of a fresh device.
func Default(limits Limits) Settings {
	return Settings{
		Display: Display{
			Brightness: limits.Clamp(limits.Default),
		},
		Time: Time{
			Timezone: DefaultTimezone,
			Locale:   DefaultLocale,
		},
		CustomData: CustomData{
			Interval: -1,
		},
	}
}

// Validate clamps out of range values and reports whether anything changed.
func (s *Settings) Validate(limits Limits) (changed bool) {
	if v := limits.Clamp(s.Display.Brightness); v != s.Display.Brightness {
		s.Display.Brightness, changed = v, true
	}
	if s.Display.CompositionMode < 0 || s.Display.CompositionMode > 2 {
		s.Display.CompositionMode, changed = 0, true
	}
	if s.CustomData.Interval < -1 {
		s.CustomData.Interval, changed = -1, true
	}
	if s.Time.Timezone == "" {
		s.Time.Timezone, changed = DefaultTimezone, true
	}
	if s.Time.Locale == "" {
		s.Time.Locale, changed = DefaultLocale, true
	}
	return
}

// Store guards the settings and writes them to disk on request.
// All methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	saveMu sync.Mutex // orders writes to path
	path   string
	limits Limits
	cur    Settings
	log    *slog.Logger
}

// Open loads the settings at path. A missing file yields the defaults, an
// unreadable or malformed file is logged and also yields the defaults.
// An empty path keeps the settings in memory only.
func Open(path string, limits Limits, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		path:   path,
		limits: limits,
		cur:    Default(limits),
		log:    logger,
	}
	if path == "" {
		return s
	}

	loaded, err := load(path, limits)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("no settings file, using defaults", "path", path)
	case err != nil:
		logger.Warn("failed to load settings, using defaults", "path", path, "error", err)
	default:
		if loaded.Validate(limits) {
			logger.Warn("settings out of range, clamped", "path", path)
		}
		s.cur = loaded
		logger.Debug("settings loaded", "path", path)
	}
	return s
}

func load(path string, limits Limits) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	out := Default(limits)
	if err := json.Unmarshal(jsonc.ToJSON(data), &out); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

// Limits returns the brightness limits of the store.
func (s *Store) Limits() Limits {
	return s.limits
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update applies fn to the settings, clamps the result and returns it.
func (s *Store) Update(fn func(*Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	fn(&next)
	next.Validate(s.limits)
	s.cur = next
	return next
}

// Save writes the current settings to disk, replacing the file atomically.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	cur := s.cur
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(cur, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(s.path, append(data, '\n')); err != nil {
		return fmt.Errorf("settings: save %s: %w", s.path, err)
	}
	s.log.Debug("settings saved", "path", s.path)
	return nil
}

// Reset restores the defaults and saves them.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.cur = Default(s.limits)
	s.mu.Unlock()
	return s.Save()
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	return err
}

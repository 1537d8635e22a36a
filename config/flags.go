package config

import (
	"os"

	"github.com/spf13/pflag"
)

// Flags holds the command line overrides of a Config.
type Flags struct {
	fs *pflag.FlagSet

	Path    string
	Debug   bool
	listen  string
	webRoot string
	store   string
	driver  string
	width   int
	height  int
	device  string
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.Path, "config", "c", os.Getenv(EnvConfig), "configuration file (env "+EnvConfig+")")
	fs.BoolVar(&f.Debug, "debug", os.Getenv("PIXELCLOCK_DEBUG") != "", "enable debug logging (env PIXELCLOCK_DEBUG)")
	fs.StringVarP(&f.listen, "listen", "l", "", "HTTP listen address")
	fs.StringVar(&f.webRoot, "web-root", "", "directory with the web UI")
	fs.StringVar(&f.store, "settings", "", "settings file")
	fs.StringVar(&f.driver, "driver", "", "display driver (memory, framebuffer, st7735, st7789)")
	fs.IntVar(&f.width, "width", 0, "display width in pixels")
	fs.IntVar(&f.height, "height", 0, "display height in pixels")
	fs.StringVar(&f.device, "device", "", "frame buffer device")
	return f
}

// Load reads the configuration file and applies the flags that were set.
func (f *Flags) Load() (*Config, error) {
	c, err := Load(f.Path)
	if err != nil {
		return nil, err
	}
	f.Apply(c)
	return c, nil
}

// Apply copies the flags that were set on the command line into c.
func (f *Flags) Apply(c *Config) {
	if f.fs.Changed("listen") {
		c.Listen = f.listen
	}
	if f.fs.Changed("web-root") {
		c.WebRoot = f.webRoot
	}
	if f.fs.Changed("settings") {
		c.SettingsFile = f.store
	}
	if f.fs.Changed("driver") {
		c.Display.Driver = f.driver
	}
	if f.fs.Changed("width") {
		c.Display.Width = f.width
	}
	if f.fs.Changed("height") {
		c.Display.Height = f.height
	}
	if f.fs.Changed("device") {
		c.Display.Device = f.device
	}
}

// Package config provides the daemon configuration.
//
// Configuration is read from a single YAML file selected with the --config
// flag or the PIXELCLOCK_CONFIG environment variable. Values missing from the
// file keep their defaults; command line flags override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BeatGlow/pixelclock/pixel"
)

// EnvConfig names the environment variable holding the config file path.
const EnvConfig = "PIXELCLOCK_CONFIG"

// Config is the daemon configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// WebRoot is the directory with the browser UI, empty disables it.
	WebRoot string `yaml:"web_root"`

	// SettingsFile stores the user settings, empty keeps them in memory.
	SettingsFile string `yaml:"settings_file"`

	Display    DisplayConfig    `yaml:"display"`
	Matrix     MatrixConfig     `yaml:"matrix"`
	Brightness BrightnessConfig `yaml:"brightness"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	CustomData CustomDataConfig `yaml:"custom_data"`
	Update     UpdateConfig     `yaml:"update"`
	Network    NetworkConfig    `yaml:"network"`
	Button     ButtonConfig     `yaml:"button"`
}

// DisplayConfig selects and configures the output driver.
type DisplayConfig struct {
	// Driver is one of "memory", "framebuffer", "st7735" or "st7789".
	Driver string `yaml:"driver"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Rotation in degrees clockwise: 0, 90, 180 or 270.
	Rotation int `yaml:"rotation"`

	// Device is the frame buffer device.
	Device string `yaml:"device"`

	SPI SPIConfig `yaml:"spi"`
}

// SPIConfig configures an SPI attached panel.
type SPIConfig struct {
	// Port is the SPI port name, empty selects the first one.
	Port      string `yaml:"port"`
	Reset     string `yaml:"reset"`
	DC        string `yaml:"dc"`
	Backlight string `yaml:"backlight"`
	SpeedHz   int64  `yaml:"speed_hz"`

	// PanelWidth and PanelHeight are the LCD resolution, the matrix is
	// scaled up to fit.
	PanelWidth  int `yaml:"panel_width"`
	PanelHeight int `yaml:"panel_height"`
}

// MatrixConfig configures rendering.
type MatrixConfig struct {
	Tick            time.Duration `yaml:"tick"`
	BlendRatio      int           `yaml:"blend_ratio"`
	SilhouetteColor string        `yaml:"silhouette_color"`
	Splash          time.Duration `yaml:"splash"`
	LinesPerMessage int           `yaml:"lines_per_message"`
}

// BrightnessConfig bounds the brightness setting.
type BrightnessConfig struct {
	Min     int `yaml:"min"`
	Max     int `yaml:"max"`
	Default int `yaml:"default"`
}

// WebSocketConfig configures the control connection.
type WebSocketConfig struct {
	// BufferSize is the largest inbound message in bytes.
	BufferSize int `yaml:"buffer_size"`

	// ReadChunk is the fragment size payloads are read in.
	ReadChunk int `yaml:"read_chunk"`

	MaxClients int `yaml:"max_clients"`

	// ReassemblyTimeout bounds an incomplete message, 0 disables.
	ReassemblyTimeout time.Duration `yaml:"reassembly_timeout"`

	PingInterval time.Duration `yaml:"ping_interval"`
	PongWait     time.Duration `yaml:"pong_wait"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// SendQueue is the number of outbound messages buffered per client.
	SendQueue int `yaml:"send_queue"`
}

// CustomDataConfig configures the custom data fetcher.
type CustomDataConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// UpdateConfig configures firmware upload staging.
type UpdateConfig struct {
	Dir     string `yaml:"dir"`
	MaxSize int64  `yaml:"max_size"`
}

// NetworkConfig configures the network collaborator.
type NetworkConfig struct {
	// Interface reported on the splash screen, empty picks the first one up.
	Interface string `yaml:"interface"`

	// ResetCommand is run by the reset action, empty only logs.
	ResetCommand []string `yaml:"reset_command"`
}

// ButtonConfig configures the network reset push button.
type ButtonConfig struct {
	// Chip is the GPIO character device, for example "gpiochip0".
	Chip string `yaml:"chip"`

	// Line is the line offset on Chip, negative disables the button.
	Line int `yaml:"line"`

	// Hold is how long the button must be held to reset the network.
	Hold time.Duration `yaml:"hold"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:       ":80",
		SettingsFile: "/var/lib/pixelclock/config.json",
		Display: DisplayConfig{
			Driver: "memory",
			Width:  64,
			Height: 32,
			Device: "/dev/fb0",
			SPI: SPIConfig{
				Reset:       "GPIO25",
				DC:          "GPIO24",
				SpeedHz:     32000000,
				PanelWidth:  240,
				PanelHeight: 240,
			},
		},
		Matrix: MatrixConfig{
			Tick:            100 * time.Millisecond,
			BlendRatio:      128,
			SilhouetteColor: "#000000",
			Splash:          6 * time.Second,
			LinesPerMessage: 4,
		},
		Brightness: BrightnessConfig{
			Min:     3,
			Max:     15,
			Default: 3,
		},
		WebSocket: WebSocketConfig{
			BufferSize:        48000,
			ReadChunk:         1024,
			MaxClients:        4,
			ReassemblyTimeout: 10 * time.Second,
			PingInterval:      54 * time.Second,
			PongWait:          60 * time.Second,
			WriteTimeout:      10 * time.Second,
			SendQueue:         16,
		},
		CustomData: CustomDataConfig{
			Timeout:  10 * time.Second,
			MaxBytes: 64 << 10,
		},
		Update: UpdateConfig{
			Dir:     "/var/lib/pixelclock/update",
			MaxSize: 16 << 20,
		},
		Button: ButtonConfig{
			Chip: "gpiochip0",
			Line: -1,
			Hold: 5 * time.Second,
		},
	}
}

// Load returns the defaults merged with the file at path. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Display.Driver {
	case "memory", "framebuffer", "st7735", "st7789":
	default:
		errs = append(errs, fmt.Errorf("display.driver must be one of memory, framebuffer, st7735, st7789; got %q", c.Display.Driver))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display size %dx%d is invalid", c.Display.Width, c.Display.Height))
	}
	switch c.Display.Rotation {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, fmt.Errorf("display.rotation must be 0, 90, 180 or 270; got %d", c.Display.Rotation))
	}

	if c.Matrix.Tick <= 0 {
		errs = append(errs, errors.New("matrix.tick must be positive"))
	}
	if c.Matrix.BlendRatio < 0 || c.Matrix.BlendRatio > 255 {
		errs = append(errs, fmt.Errorf("matrix.blend_ratio must be in 0..255; got %d", c.Matrix.BlendRatio))
	}
	if _, err := pixel.ParseHex(c.Matrix.SilhouetteColor); err != nil {
		errs = append(errs, fmt.Errorf("matrix.silhouette_color: %w", err))
	}
	if c.Matrix.LinesPerMessage <= 0 {
		errs = append(errs, errors.New("matrix.lines_per_message must be positive"))
	}

	if c.Brightness.Min < 0 || c.Brightness.Max <= 0 || c.Brightness.Min > c.Brightness.Max {
		errs = append(errs, fmt.Errorf("brightness range %d..%d is invalid", c.Brightness.Min, c.Brightness.Max))
	}

	if c.WebSocket.BufferSize <= 0 {
		errs = append(errs, errors.New("websocket.buffer_size must be positive"))
	}
	if c.WebSocket.ReadChunk <= 0 {
		errs = append(errs, errors.New("websocket.read_chunk must be positive"))
	}
	if c.WebSocket.MaxClients <= 0 {
		errs = append(errs, errors.New("websocket.max_clients must be positive"))
	}
	if c.WebSocket.ReassemblyTimeout < 0 {
		errs = append(errs, errors.New("websocket.reassembly_timeout must not be negative"))
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.PongWait <= c.WebSocket.PingInterval {
		errs = append(errs, errors.New("websocket.pong_wait must exceed websocket.ping_interval"))
	}
	if c.WebSocket.WriteTimeout <= 0 {
		errs = append(errs, errors.New("websocket.write_timeout must be positive"))
	}
	if c.WebSocket.SendQueue <= 0 {
		errs = append(errs, errors.New("websocket.send_queue must be positive"))
	}

	if c.Update.MaxSize <= 0 {
		errs = append(errs, errors.New("update.max_size must be positive"))
	}

	if c.Button.Line >= 0 && (c.Button.Chip == "" || c.Button.Hold <= 0) {
		errs = append(errs, errors.New("button needs a chip and a positive hold time"))
	}

	return errors.Join(errs...)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestDefaultValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelclock.yaml")
	data := `
listen: ":8080"
display:
  driver: framebuffer
  device: /dev/fb1
matrix:
  tick: 50ms
  silhouette_color: "#102030"
websocket:
  reassembly_timeout: 0s
  max_clients: 2
button:
  line: 17
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Listen != ":8080" {
		t.Errorf("expected listen :8080, got %q", c.Listen)
	}
	if c.Display.Driver != "framebuffer" || c.Display.Device != "/dev/fb1" {
		t.Errorf("expected framebuffer on /dev/fb1, got %+v", c.Display)
	}
	if c.Display.Width != 64 || c.Display.Height != 32 {
		t.Errorf("expected default size to be kept, got %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Matrix.Tick != 50*time.Millisecond {
		t.Errorf("expected tick 50ms, got %s", c.Matrix.Tick)
	}
	if c.WebSocket.ReassemblyTimeout != 0 {
		t.Errorf("expected reassembly timeout disabled, got %s", c.WebSocket.ReassemblyTimeout)
	}
	if c.WebSocket.BufferSize != 48000 {
		t.Errorf("expected default buffer size, got %d", c.WebSocket.BufferSize)
	}
	if c.Button.Line != 17 || c.Button.Chip != "gpiochip0" || c.Button.Hold != 5*time.Second {
		t.Errorf("expected button on gpiochip0 line 17 with default hold, got %+v", c.Button)
	}
	if err := c.Validate(); err != nil {
		t.Error(err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("matrix: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Display.Driver = "oled"
	c.Display.Rotation = 45
	c.Matrix.BlendRatio = 300
	c.Matrix.SilhouetteColor = "purple"
	c.Brightness.Min = 20
	c.WebSocket.PongWait = time.Second
	c.Button.Line = 4
	c.Button.Hold = 0

	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"display.driver", "display.rotation", "blend_ratio", "silhouette_color", "brightness range", "pong_wait", "button"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixelclock.yaml")
	if err := os.WriteFile(path, []byte("listen: \":8080\"\nweb_root: /srv/www\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"--config", path, "-l", ":9000", "--width", "32"}); err != nil {
		t.Fatal(err)
	}
	c, err := f.Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Listen != ":9000" {
		t.Errorf("expected flag to override listen, got %q", c.Listen)
	}
	if c.WebRoot != "/srv/www" {
		t.Errorf("expected file value for web root, got %q", c.WebRoot)
	}
	if c.Display.Width != 32 || c.Display.Height != 32 {
		t.Errorf("expected 32x32, got %dx%d", c.Display.Width, c.Display.Height)
	}
}

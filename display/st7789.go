package display

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	st7789DefaultWidth  = 240
	st7789DefaultHeight = 240
)

// Registers (from st7789.pdf).
const (
	st7789SLPOUT    = 0x11 // Sleep Out
	st7789INVON     = 0x21 // Display Inversion On
	st7789WRDISBV   = 0x51 // Write Display Brightness
	st7789WRCTRLD   = 0x53 // Write CTRL Display
	st7789PORCTRL   = 0xB2 // Porch Setting
	st7789GCTRL     = 0xB7 // Gate Control
	st7789VCOMS     = 0xBB // VCOM Setting
	st7789LCMCTRL   = 0xC0 // LCM Control
	st7789VDVVRHEN  = 0xC2 // VDV and VRH Command Enable
	st7789VRHS      = 0xC3 // VRH Set
	st7789VDVSET    = 0xC4 // VDV Set
	st7789VCMOFSET  = 0xC5 // VCOM Offset Set
	st7789FRCTR2    = 0xC6 // Frame Rate Control in Normal Mode
	st7789PWCTRL1   = 0xD0 // Power Control 1
	st7789PVGAMCTRL = 0xE0 // Positive Voltage Gamma Control
	st7789NVGAMCTRL = 0xE1 // Negative Voltage Gamma Control
)

// ST7789 drives an ST7789 LCD controller. The matrix frame is scaled up and
// centered on the panel.
type ST7789 struct {
	tft
	backlight gpio.PinOut
}

// NewST7789 resets and initializes the controller behind c.
func NewST7789(c Conn, config *Config) (*ST7789, error) {
	d := &ST7789{
		tft:       tft{c: c, name: "st7789"},
		backlight: config.Backlight,
	}
	if err := d.init(config); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *ST7789) Close() error {
	if err := d.Show(false); err != nil {
		_ = d.c.Close()
		return err
	}
	return d.c.Close()
}

func (d *ST7789) init(config *Config) (err error) {
	d.width, d.height = config.Width, config.Height
	if d.width == 0 {
		d.width = st7789DefaultWidth
	}
	if d.height == 0 {
		d.height = st7789DefaultHeight
	}
	if err = d.checkSize(config.Rotation); err != nil {
		return
	}

	// reset the device.
	for _, level := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err = d.c.Reset(level); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err = d.c.Command(st7789SLPOUT); err != nil {
		return
	}
	time.Sleep(150 * time.Millisecond)

	if err = d.commands([][]byte{
		{tftCOLMOD, 0x05},           // 16-bit/pixel (RGB 5-6-5-bit input)
		{st7789PORCTRL, 0x0C, 0x0C}, // Porch Setting: default
		{st7789GCTRL, 0x35},         // Gate Control: 13.26V / -10.43V (default)
		{st7789VCOMS, 0x1A},         // VCOM Setting: 0.75V
		{st7789LCMCTRL, 0x2C},       // LCM Control: default
		{st7789VDVVRHEN, 0x01},      // VDV and VRH Command Enable: default
		{st7789VRHS, 0x0B},          // VRH Set
		{st7789VDVSET, 0x20},        // VDV Set: default (0V)
		{st7789VCMOFSET, 0x20},      // VCOM Offset Set: default (0V)
		{st7789FRCTR2, 0x0F},        // 60Hz (default)
		{st7789PWCTRL1, 0xA4, 0xA1}, // Power Control 1: default
		{st7789WRCTRLD, 0x24},       // Brightness control and backlight on
		{st7789INVON},
		{st7789PVGAMCTRL, 0x00, 0x19, 0x1E, 0x0A, 0x09, 0x15, 0x3D, 0x44, 0x51, 0x12, 0x03, 0x00, 0x3F, 0x3F},
		{st7789NVGAMCTRL, 0x00, 0x18, 0x1E, 0x0A, 0x09, 0x25, 0x3F, 0x43, 0x52, 0x33, 0x03, 0x00, 0x3F, 0x3F},
		{tftDISPON},
	}); err != nil {
		return
	}
	time.Sleep(100 * time.Millisecond)

	if err = d.SetRotation(config.Rotation); err != nil {
		return
	}
	return d.SetBrightness(255)
}

// SetBrightness sets the display brightness register and switches the
// backlight pin off at level 0.
func (d *ST7789) SetBrightness(level uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backlight != nil && d.backlight != gpio.INVALID {
		if err := d.backlight.Out(level > 0); err != nil {
			return err
		}
	}
	return d.c.Command(st7789WRDISBV, level)
}

func (d *ST7789) SetRotation(rotation Rotation) error {
	return d.setRotation(rotation)
}

var _ Display = (*ST7789)(nil)

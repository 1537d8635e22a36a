package display

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	st7735DefaultWidth  = 128
	st7735DefaultHeight = 160
)

// Registers (from ST7735 datasheet).
const (
	st7735SWRESET = 0x01
	st7735SLPOUT  = 0x11
	st7735NORON   = 0x13
	st7735FRMCTR1 = 0xB1
	st7735FRMCTR2 = 0xB2
	st7735FRMCTR3 = 0xB3
	st7735INVCTR  = 0xB4
	st7735PWCTR1  = 0xC0
	st7735PWCTR2  = 0xC1
	st7735PWCTR3  = 0xC2
	st7735PWCTR4  = 0xC3
	st7735PWCTR5  = 0xC4
	st7735VMCTR1  = 0xC5
	st7735GMCTRP1 = 0xE0
	st7735GMCTRN1 = 0xE1
)

const st7735BacklightRate = 2 * physic.KiloHertz

// ST7735 drives an ST7735 LCD controller. It has no brightness register,
// brightness is the PWM duty cycle of the backlight pin.
type ST7735 struct {
	tft
	backlight gpio.PinOut
}

// NewST7735 resets and initializes the controller behind c.
func NewST7735(c Conn, config *Config) (*ST7735, error) {
	d := &ST7735{
		tft:       tft{c: c, name: "st7735"},
		backlight: config.Backlight,
	}
	if err := d.init(config); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *ST7735) Close() error {
	if err := d.Show(false); err != nil {
		_ = d.c.Close()
		return err
	}
	return d.c.Close()
}

func (d *ST7735) init(config *Config) (err error) {
	d.width, d.height = config.Width, config.Height
	if d.width == 0 {
		d.width = st7735DefaultWidth
		if config.Rotation%2 == 1 {
			d.width = st7735DefaultHeight
		}
	}
	if d.height == 0 {
		d.height = st7735DefaultHeight
		if config.Rotation%2 == 1 {
			d.height = st7735DefaultWidth
		}
	}
	if err = d.checkSize(config.Rotation); err != nil {
		return
	}

	for _, level := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err = d.c.Reset(level); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err = d.c.Command(st7735SWRESET); err != nil {
		return
	}
	time.Sleep(150 * time.Millisecond)
	if err = d.c.Command(st7735SLPOUT); err != nil {
		return
	}
	time.Sleep(150 * time.Millisecond)

	if err = d.commands([][]byte{
		{st7735FRMCTR1, 0x01, 0x2C, 0x2D},
		{st7735FRMCTR2, 0x01, 0x2C, 0x2D},
		{st7735FRMCTR3, 0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D},
		{st7735INVCTR, 0x07},
		{st7735PWCTR1, 0xA2, 0x02, 0x84},
		{st7735PWCTR2, 0xC5},
		{st7735PWCTR3, 0x0A, 0x00},
		{st7735PWCTR4, 0x8A, 0x2A},
		{st7735PWCTR5, 0x8A, 0xEE},
		{st7735VMCTR1, 0x0E},
		{tftCOLMOD, 0x05}, // 16-bits per pixel
		{st7735GMCTRP1, 0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10},
		{st7735GMCTRN1, 0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10},
		{st7735NORON},
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

// SetBrightness sets the backlight duty cycle. Without a backlight pin it
// is a no-op.
func (d *ST7735) SetBrightness(level uint8) error {
	if d.backlight == nil || d.backlight == gpio.INVALID {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backlight.PWM(backlightDuty(level), st7735BacklightRate)
}

// backlightDuty maps a brightness level to a duty cycle, 0xFF is DutyMax.
func backlightDuty(level uint8) gpio.Duty {
	return gpio.Duty(int64(level) * int64(gpio.DutyMax) / 0xFF)
}

func (d *ST7735) SetRotation(rotation Rotation) error {
	return d.setRotation(rotation)
}

var _ Display = (*ST7735)(nil)

package display

import (
	"fmt"
	"image"
	"sync"

	"github.com/BeatGlow/pixelclock/pixel"
)

// Commands shared by the Sitronix TFT controllers.
const (
	tftDISPOFF = 0x28 // Display Off
	tftDISPON  = 0x29 // Display On
	tftCASET   = 0x2A // Column Address Set
	tftRASET   = 0x2B // Row Address Set
	tftRAMWR   = 0x2C // Memory Write
	tftMADCTL  = 0x36 // Memory Data Access Control
	tftCOLMOD  = 0x3A // Interface Pixel Format
)

// Memory Data Access Control (MADCTL) bit fields.
const (
	_                     byte = 1 << iota // D0: reserved
	_                                      // D1: reserved
	tftDisplayDataLatch                    // D2: MH
	tftBGROrder                            // D3: RGB
	tftLineAddressOrder                    // D4: ML
	tftPageColumnOrder                     // D5: MV
	tftColumnAddressOrder                  // D6: MX
	tftPageAddressOrder                    // D7: MY
)

// tft is the part of a 16-bit color TFT driver that is the same across
// controllers: windowed RAM writes, display on/off and rotation.
type tft struct {
	mu        sync.Mutex
	c         Conn
	name      string
	width     int
	height    int
	colOffset int
	rowOffset int
	rotation  Rotation
}

func (d *tft) String() string {
	return fmt.Sprintf("%s %dx%d on %s", d.name, d.width, d.height, d.c)
}

func (d *tft) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

func (d *tft) checkSize(rotation Rotation) error {
	if rotation%2 == 0 && (d.width > 240 || d.height > 320) {
		return fmt.Errorf("%s: invalid size %dx%d, maximum size is 240x320 at %s rotation", d.name, d.width, d.height, rotation)
	} else if rotation%2 == 1 && (d.width > 320 || d.height > 240) {
		return fmt.Errorf("%s: invalid size %dx%d, maximum size is 320x240 at %s rotation", d.name, d.width, d.height, rotation)
	}
	return nil
}

func (d *tft) commands(commands [][]byte) error {
	for _, command := range commands {
		if err := d.c.Command(command[0], command[1:]...); err != nil {
			return err
		}
	}
	return nil
}

func (d *tft) Show(show bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if show {
		return d.c.Command(tftDISPON)
	}
	return d.c.Command(tftDISPOFF)
}

func (d *tft) setRotation(rotation Rotation) error {
	rotation &= 3

	var madctl byte
	switch rotation {
	case Rotate90:
		madctl = tftColumnAddressOrder | tftPageColumnOrder
	case Rotate180:
		madctl = tftColumnAddressOrder | tftPageAddressOrder
	case Rotate270:
		madctl = tftPageAddressOrder | tftPageColumnOrder | tftLineAddressOrder
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotation = rotation
	return d.c.Command(tftMADCTL, madctl)
}

func (d *tft) setWindow(x0, y0, x1, y1 int) error {
	if d.rotation%2 == 1 {
		x0, x1 = x0+d.rowOffset, x1+d.rowOffset
		y0, y1 = y0+d.colOffset, y1+d.colOffset
	} else {
		x0, x1 = x0+d.colOffset, x1+d.colOffset
		y0, y1 = y0+d.rowOffset, y1+d.rowOffset
	}
	return d.commands([][]byte{
		{tftCASET, byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)}, // Column address
		{tftRASET, byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)}, // Row address
		{tftRAMWR}, // Write to RAM
	})
}

// Present scales frame to the panel and writes it to display RAM.
func (d *tft) Present(frame *pixel.CRGB16Image) error {
	scale, origin, err := Fit(frame.Bounds().Size(), image.Pt(d.width, d.height))
	if err != nil {
		return err
	}
	scaled := Upscale(frame, scale)
	b := scaled.Bounds()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setWindow(origin.X, origin.Y, origin.X+b.Dx()-1, origin.Y+b.Dy()-1); err != nil {
		return err
	}
	return d.c.Data(scaled.Pix...)
}

package pixel

import "image/color"

// Models for the standard color types.
var (
	MonoModel   color.Model = color.ModelFunc(monoModel)
	CRGB16Model color.Model = color.ModelFunc(crgb16Model)
	CBGR16Model color.Model = color.ModelFunc(cbgr16Model)
)

var (
	Off = Mono{false}
	On  = Mono{true}
)

// Black is the background constant layers are cleared to.
var Black = CRGB16{}

// Mono represents a 1-bit monochrome color.
type Mono struct {
	On bool
}

func (c Mono) RGBA() (r, g, b, a uint32) {
	if c.On {
		return 0xffff, 0xffff, 0xffff, 0xffff
	}
	return 0, 0, 0, 0xffff
}

func monoModel(c color.Color) color.Color {
	switch c := c.(type) {
	case Mono:
		return c
	case CRGB16:
		return Mono{On: c.V != 0}
	}
	r, g, b, _ := c.RGBA()

	// These coefficients (the fractions 0.299, 0.587 and 0.114) are the same
	// as those given by the JFIF specification and used by func RGBToYCbCr in
	// ycbcr.go.
	//
	// Note that 19595 + 38470 + 7471 equals 65536.
	//
	// The 31 is 16 + 15. The 16 is the same as used in RGBToYCbCr. The 15 is
	// because the return value is 1 bit color, not 16 bit color.
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 31

	return Mono{On: y != 0}
}

// CRGB16 represents a 16-bit 5-6-5 RGB color.
type CRGB16 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

// RGB returns the 5-, 6- and 5-bit components.
func (c CRGB16) RGB() (r, g, b uint8) {
	return uint8(c.V >> 11), uint8(c.V>>5) & 0x3f, uint8(c.V) & 0x1f
}

// RGB888 expands the components to 8 bits by replicating the high bits into
// the low bits, so 0x1f maps to 0xff and 0 maps to 0.
func (c CRGB16) RGB888() (r, g, b uint8) {
	r5, g6, b5 := c.RGB()
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

func (c CRGB16) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.RGB888()
	r, g, b = uint32(r8), uint32(g8), uint32(b8)
	// Duplicate the whole value in the high byte.
	r |= r << 8
	g |= g << 8
	b |= b << 8
	return r, g, b, 0xffff
}

// FromRGB888 returns the nearest 5-6-5 color for 8-bit components.
func FromRGB888(r, g, b uint8) CRGB16 {
	r5 := (uint32(r)*249 + 1014) >> 11
	g6 := (uint32(g)*253 + 505) >> 10
	b5 := (uint32(b)*249 + 1014) >> 11
	return CRGB16{uint16(r5<<11 | g6<<5 | b5)}
}

func crgb16Model(c color.Color) color.Color {
	switch c := c.(type) {
	case Mono:
		if c.On {
			return CRGB16{0xffff}
		}
		return CRGB16{}
	case CRGB16:
		return c
	case CBGR16:
		r, g, b := c.components()
		return CRGB16{r<<11 | g<<5 | b}
	default:
		r, g, b, _ := c.RGBA()
		return FromRGB888(uint8(r>>8), uint8(g>>8), uint8(b>>8))
	}
}

// CBGR16 represents a 16-bit 5-6-5 BGR color, as used by some frame buffers.
type CBGR16 struct {
	// CBlue, 5, CGreen, 6, CRed, 5
	V uint16
}

func (c CBGR16) components() (r, g, b uint16) {
	return c.V & 0x1f, c.V >> 5 & 0x3f, c.V >> 11
}

func (c CBGR16) RGBA() (r, g, b, a uint32) {
	r5, g6, b5 := c.components()
	return CRGB16{r5<<11 | g6<<5 | b5}.RGBA()
}

func cbgr16Model(c color.Color) color.Color {
	if c, ok := c.(CBGR16); ok {
		return c
	}
	v := crgb16Model(c).(CRGB16).V
	r, g, b := v>>11, v>>5&0x3f, v&0x1f
	return CBGR16{b<<11 | g<<5 | r}
}

// Blend mixes two colors per channel; ratio 0 yields a, 255 yields b.
func Blend(a, b CRGB16, ratio uint8) CRGB16 {
	ar, ag, ab := a.RGB888()
	br, bg, bb := b.RGB888()
	mix := func(x, y uint8) uint8 {
		return uint8((uint32(x)*(255-uint32(ratio)) + uint32(y)*uint32(ratio) + 127) / 255)
	}
	return FromRGB888(mix(ar, br), mix(ag, bg), mix(ab, bb))
}

package pixel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrHexColor is returned for strings that are not a valid color.
var ErrHexColor = errors.New("pixel: invalid hex color")

// ParseHex converts a wire color to CRGB16.
//
// Accepted forms:
//
//	#RRGGBB, RRGGBB   24-bit color, rounded to the nearest 5-6-5 value
//	0xVVVV, VVVV      raw 5-6-5 value (one to four hex digits)
func ParseHex(s string) (CRGB16, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return parse565(s[2:], s)
	case strings.HasPrefix(s, "#"):
		return parse888(s[1:], s)
	case len(s) == 6:
		return parse888(s, s)
	default:
		return parse565(s, s)
	}
}

func parse565(digits, orig string) (CRGB16, error) {
	if len(digits) == 0 || len(digits) > 4 {
		return CRGB16{}, fmt.Errorf("%w: %q", ErrHexColor, orig)
	}
	v, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return CRGB16{}, fmt.Errorf("%w: %q", ErrHexColor, orig)
	}
	return CRGB16{uint16(v)}, nil
}

func parse888(digits, orig string) (CRGB16, error) {
	if len(digits) != 6 {
		return CRGB16{}, fmt.Errorf("%w: %q", ErrHexColor, orig)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return CRGB16{}, fmt.Errorf("%w: %q", ErrHexColor, orig)
	}
	return FromRGB888(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// Hex formats c as a lower case #rrggbb string.
func (c CRGB16) Hex() string {
	r, g, b := c.RGB888()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func (c CRGB16) String() string {
	return c.Hex()
}

// Package pixel implements the color and raster types shared by the
// compositor and the display drivers.
//
// All colors are stored as 16-bit 5-6-5 values ([CRGB16]) and are compatible
// with Go's native [color.Color] and [image.Image] / [draw.Image] interfaces.
// On the wire colors travel as hex strings, see [ParseHex] and [CRGB16.Hex].
package pixel

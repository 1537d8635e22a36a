package pixel

import (
	"image"
	"image/color"
)

// Layer is a fixed-size 16-bit color raster with a coverage mask.
//
// Every pixel written through Set or Fill is marked as covered. Compositors
// use coverage to decide whether the layer contributes at a coordinate, so a
// layer can draw any color, black included, without it reading as "empty".
type Layer struct {
	*CRGB16Image
	cover *MonoImage
}

// NewLayer returns a cleared layer of w x h pixels.
func NewLayer(w, h int) *Layer {
	return &Layer{
		CRGB16Image: NewCRGB16Image(w, h),
		cover:       NewMonoImage(w, h),
	}
}

// Set draws c at (x, y). Out of bounds writes are ignored.
func (l *Layer) Set(x, y int, c color.Color) {
	l.SetCRGB16(x, y, crgb16Model(c).(CRGB16))
}

// SetCRGB16 draws a packed color at (x, y). Out of bounds writes are ignored.
func (l *Layer) SetCRGB16(x, y int, c CRGB16) {
	if !(image.Point{X: x, Y: y}).In(l.Rect) {
		return
	}
	l.CRGB16Image.SetCRGB16(x, y, c)
	l.cover.SetBit(x, y, true)
}

// Fill overwrites and covers every pixel.
func (l *Layer) Fill(c color.Color) {
	l.CRGB16Image.Fill(c)
	l.cover.Fill(On)
}

// Clear resets every pixel to Black and drops all coverage.
func (l *Layer) Clear() {
	l.CRGB16Image.Clear()
	l.cover.Clear()
}

// Covered reports whether (x, y) has been drawn since the last Clear.
func (l *Layer) Covered(x, y int) bool {
	return l.cover.IsOn(x, y)
}

// CopyFrom replaces the contents of l with src. Both layers must have the
// same bounds.
func (l *Layer) CopyFrom(src *Layer) {
	copy(l.Pix, src.Pix)
	copy(l.cover.Pix, src.cover.Pix)
}

var _ Image = (*Layer)(nil)

package text

import (
	"image"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"

	"github.com/BeatGlow/pixelclock/pixel"
)

// Renderer draws text items onto a pixel layer.
//
// Font faces keep glyph caches, a Renderer is not safe for concurrent use.
type Renderer struct {
	faces [2]font.Face
	names *names
}

// NewRenderer loads the bundled fonts. If a font fails to parse the 7x13
// bitmap font is used in its place.
func NewRenderer() *Renderer {
	return &Renderer{
		faces: [2]font.Face{
			FontRegular: loadFace(gomono.TTF, 8),
			FontSmall:   loadFace(goregular.TTF, 6),
		},
	}
}

func loadFace(ttf []byte, size float64) font.Face {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// SetLocale selects the language of day and month names. Unsupported
// languages fall back to English.
func (r *Renderer) SetLocale(tag language.Tag) {
	r.names = namesFor(tag)
}

func (r *Renderer) face(n int) font.Face {
	if n == FontSmall {
		return r.faces[FontSmall]
	}
	return r.faces[FontRegular]
}

// Render expands and draws every non-empty item using t for the time
// directives.
func (r *Renderer) Render(dst *pixel.Layer, items []Item, t time.Time) {
	for _, item := range items {
		if item.Text == "" {
			continue
		}
		r.Draw(dst, expand(item.Text, t, r.names), item)
	}
}

// Draw places s on dst using the layout of item. The text template of item
// is ignored.
func (r *Renderer) Draw(dst *pixel.Layer, s string, item Item) {
	mask, box := r.rasterize(s, r.face(item.Font))
	if box.Empty() {
		return
	}

	size := item.Size
	if size < 1 {
		size = 1
	}
	var (
		bounds = dst.Bounds()
		w      = box.Dx() * size
		h      = box.Dy() * size
		x0, y0 int
	)
	switch item.Align {
	case AlignLeft:
		x0 = item.OffsetX
	case AlignRight:
		x0 = bounds.Dx() - w + item.OffsetX
	default:
		x0 = (bounds.Dx()-w)/2 + item.OffsetX
	}
	switch item.Line {
	case LineTop:
		y0 = item.OffsetY
	case LineBottom:
		y0 = bounds.Dy() - h + item.OffsetY
	default:
		y0 = (bounds.Dy()-h)/2 + item.OffsetY
	}

	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if mask.AlphaAt(x, y).A < 0x80 {
				continue
			}
			px := x0 + (x-box.Min.X)*size
			py := y0 + (y-box.Min.Y)*size
			for sy := 0; sy < size; sy++ {
				for sx := 0; sx < size; sx++ {
					dst.SetCRGB16(px+sx, py+sy, item.Color)
				}
			}
		}
	}
}

// rasterize draws s into an alpha mask and returns the mask with the
// bounding box of its lit pixels.
func (r *Renderer) rasterize(s string, face font.Face) (*image.Alpha, image.Rectangle) {
	if s == "" {
		return nil, image.Rectangle{}
	}
	var (
		metrics = face.Metrics()
		ascent  = metrics.Ascent.Ceil()
		height  = ascent + metrics.Descent.Ceil() + 2
		width   = font.MeasureString(face, s).Ceil() + 2
	)
	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(1, ascent+1),
	}
	d.DrawString(s)

	var box image.Rectangle
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask.AlphaAt(x, y).A < 0x80 {
				continue
			}
			lit := image.Rect(x, y, x+1, y+1)
			if box.Empty() {
				box = lit
			} else {
				box = box.Union(lit)
			}
		}
	}
	return mask, box
}

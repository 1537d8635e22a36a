package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"github.com/BeatGlow/pixelclock/pixel"
)

// loadImage decodes a PNG, JPEG, GIF or SVG image and scales it to w x h.
func loadImage(name string, r io.Reader, w, h int) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		return renderSVG(r, w, h)
	}
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func renderSVG(r io.Reader, w, h int) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}

// imageColors returns the pixels of img in row-major order as wire colors.
// Transparent areas come out black.
func imageColors(img image.Image) []string {
	b := img.Bounds()
	out := make([]string, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out = append(out, pixel.FromRGB888(c.R, c.G, c.B).Hex())
		}
	}
	return out
}

// rowsImage turns dumped rows of wire colors into an image.
func rowsImage(rows [][]string) (*pixel.CRGB16Image, error) {
	w := 0
	for _, row := range rows {
		w = max(w, len(row))
	}
	img := pixel.NewCRGB16Image(w, len(rows))
	for y, row := range rows {
		for x, s := range row {
			c, err := pixel.ParseHex(s)
			if err != nil {
				return nil, fmt.Errorf("pixel %d,%d: %w", x, y, err)
			}
			img.SetCRGB16(x, y, c)
		}
	}
	return img, nil
}

package draw

import (
	"image"
	"image/color"
	"testing"
)

var white = color.Gray{Y: 0xff}

func count(img *image.Gray) (n int) {
	for _, v := range img.Pix {
		if v != 0 {
			n++
		}
	}
	return
}

func TestLine(t *testing.T) {
	t.Run("diagonal", func(it *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		Line(img, image.Pt(7, 7), image.Pt(0, 0), white)
		for i := 0; i < 8; i++ {
			if img.GrayAt(i, i).Y == 0 {
				it.Errorf("expected pixel at %d,%d", i, i)
			}
		}
		if n := count(img); n != 8 {
			it.Errorf("expected 8 pixels, got %d", n)
		}
	})

	t.Run("shallow", func(it *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 8, 4))
		Line(img, image.Pt(0, 0), image.Pt(7, 3), white)
		if n := count(img); n != 8 {
			it.Errorf("expected one pixel per column, got %d", n)
		}
		if img.GrayAt(7, 3).Y == 0 {
			it.Error("expected end point to be drawn")
		}
	})

	t.Run("empty", func(it *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 4, 4))
		HorizontalLine(img, 0, 0, 0, white)
		VerticalLine(img, 0, 0, -1, white)
		if n := count(img); n != 0 {
			it.Errorf("expected nothing drawn, got %d pixels", n)
		}
	})
}

func TestRectangle(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	Rectangle(img, image.Rect(1, 2, 6, 5), white)
	// 5x3 outline
	if n := count(img); n != 12 {
		t.Errorf("expected 12 pixels, got %d", n)
	}
	if img.GrayAt(3, 3).Y != 0 {
		t.Error("expected interior to stay clear")
	}
	if img.GrayAt(5, 4).Y == 0 {
		t.Error("expected corner at 5,4")
	}
	if img.GrayAt(6, 5).Y != 0 {
		t.Error("expected max corner to be exclusive")
	}
}

func TestBox(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	Box(img, image.Rect(6, 6, 12, 12), white)
	if n := count(img); n != 4 {
		t.Errorf("expected clipped 2x2 box, got %d pixels", n)
	}
}

package text

import (
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/BeatGlow/pixelclock/pixel"
)

func TestExpand(t *testing.T) {
	now := time.Date(2024, time.March, 7, 9, 5, 0, 0, time.UTC)
	tests := []struct {
		In, Want string
	}{
		{"%H:%M", "09:05"},
		{"%d.%b", "07.Mar"},
		{"plain", "plain"},
		{"", ""},
		{strings.Repeat("x", 40), strings.Repeat("x", MaxLen)},
	}
	for _, test := range tests {
		t.Run(test.In, func(it *testing.T) {
			if v := Expand(test.In, now); v != test.Want {
				it.Errorf("expected %q, got %q", test.Want, v)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	s := strings.Repeat("a", 30) + "ü"
	if v := truncate(s, MaxLen); v != strings.Repeat("a", 30) {
		t.Errorf("expected cut at rune boundary, got %q", v)
	}
}

func TestNormalize(t *testing.T) {
	items := make([]Item, 7)
	items[0] = Item{Text: strings.Repeat("y", 40), Size: 9, Align: 7, Line: -1, Font: 3}
	items[1] = Item{Text: "ok", Size: 0, Align: AlignRight, Line: LineTop, Font: FontSmall}

	out := Normalize(items)
	if len(out) != MaxItems {
		t.Fatalf("expected %d items, got %d", MaxItems, len(out))
	}
	if v := len(out[0].Text); v != MaxLen {
		t.Errorf("expected text of %d bytes, got %d", MaxLen, v)
	}
	if out[0].Size != MaxSize || out[0].Align != AlignCenter || out[0].Line != LineMiddle || out[0].Font != FontRegular {
		t.Errorf("expected clamped item, got %+v", out[0])
	}
	if out[1].Size != 1 || out[1].Align != AlignRight || out[1].Line != LineTop || out[1].Font != FontSmall {
		t.Errorf("expected item to be kept, got %+v", out[1])
	}
	if items[0].Size != 9 {
		t.Error("expected input to be left alone")
	}
}

func coverage(l *pixel.Layer) (box [4]int, n int) {
	b := l.Bounds()
	box = [4]int{b.Max.X, b.Max.Y, -1, -1}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !l.Covered(x, y) {
				continue
			}
			n++
			box[0], box[1] = min(box[0], x), min(box[1], y)
			box[2], box[3] = max(box[2], x), max(box[3], y)
		}
	}
	return
}

func TestRendererDraw(t *testing.T) {
	r := NewRenderer()
	red := pixel.CRGB16{V: 0xf800}

	t.Run("left-top", func(it *testing.T) {
		l := pixel.NewLayer(64, 32)
		r.Draw(l, "12", Item{Color: red, Size: 1, Align: AlignLeft, Line: LineTop, OffsetX: 2, OffsetY: 1})
		box, n := coverage(l)
		if n == 0 {
			it.Fatal("expected text to be drawn")
		}
		if box[0] != 2 || box[1] != 1 {
			it.Errorf("expected text to start at (2,1), got (%d,%d)", box[0], box[1])
		}
		for y := 0; y < 32; y++ {
			for x := 0; x < 64; x++ {
				if v := l.CRGB16At(x, y); l.Covered(x, y) && v != red {
					it.Fatalf("expected %s at (%d,%d), got %s", red, x, y, v)
				}
			}
		}
	})

	t.Run("right-bottom", func(it *testing.T) {
		l := pixel.NewLayer(64, 32)
		r.Draw(l, "12", Item{Color: red, Size: 1, Align: AlignRight, Line: LineBottom})
		box, _ := coverage(l)
		if box[2] != 63 || box[3] != 31 {
			it.Errorf("expected text to end at (63,31), got (%d,%d)", box[2], box[3])
		}
	})

	t.Run("scaled", func(it *testing.T) {
		one, two := pixel.NewLayer(64, 32), pixel.NewLayer(64, 32)
		r.Draw(one, "8", Item{Color: red, Size: 1, Align: AlignLeft, Line: LineTop})
		r.Draw(two, "8", Item{Color: red, Size: 2, Align: AlignLeft, Line: LineTop})
		_, n1 := coverage(one)
		_, n2 := coverage(two)
		if n2 != 4*n1 {
			it.Errorf("expected %d pixels at size 2, got %d", 4*n1, n2)
		}
	})

	t.Run("centered", func(it *testing.T) {
		l := pixel.NewLayer(64, 32)
		r.Draw(l, "00", Item{Color: red, Size: 1, Align: AlignCenter, Line: LineMiddle})
		box, _ := coverage(l)
		left, right := box[0], 63-box[2]
		if d := left - right; d < -1 || d > 1 {
			it.Errorf("expected horizontally centered text, got margins %d and %d", left, right)
		}
	})

	t.Run("empty", func(it *testing.T) {
		l := pixel.NewLayer(64, 32)
		r.Render(l, []Item{{Text: "", Color: red, Size: 1}, {Text: " ", Color: red, Size: 1}}, time.Now())
		if _, n := coverage(l); n != 0 {
			it.Errorf("expected nothing drawn, got %d pixels", n)
		}
	})
}

func TestRendererDefaults(t *testing.T) {
	l := pixel.NewLayer(64, 32)
	NewRenderer().Render(l, DefaultItems(), time.Date(2024, time.March, 7, 12, 34, 0, 0, time.UTC))
	if _, n := coverage(l); n == 0 {
		t.Error("expected default items to draw")
	}
}

func TestLoadLocation(t *testing.T) {
	summer := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	winter := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		TZ             string
		Summer, Winter int
	}{
		{"", 12, 12},
		{"UTC", 12, 12},
		{"CET-1CEST,M3.5.0,M10.5.0/3", 14, 13},
		{"EST5EDT,M3.2.0,M11.1.0", 8, 7},
		{"<+0530>-5:30", 17, 17},
		{"Europe/Berlin", 14, 13},
		{"JST-9", 21, 21},
	}
	for _, test := range tests {
		t.Run(test.TZ, func(it *testing.T) {
			loc, err := LoadLocation(test.TZ)
			if err != nil {
				it.Fatal(err)
			}
			if v := summer.In(loc).Hour(); v != test.Summer {
				it.Errorf("expected summer hour %d, got %d", test.Summer, v)
			}
			if v := winter.In(loc).Hour(); v != test.Winter {
				it.Errorf("expected winter hour %d, got %d", test.Winter, v)
			}
		})
	}

	for _, tz := range []string{"X1", "Nowhere/Special", "ABC+99"} {
		if _, err := LoadLocation(tz); !errors.Is(err, ErrTimezone) {
			t.Errorf("%q: expected ErrTimezone, got %v", tz, err)
		}
	}
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		In   string
		Want string
	}{
		{"en_US.UTF-8", "en-US"},
		{"de_DE.UTF-8", "de-DE"},
		{"de-AT", "de-AT"},
		{"fr_FR@euro", "fr-FR"},
		{"C", "en-US"},
	}
	for _, test := range tests {
		t.Run(test.In, func(it *testing.T) {
			tag, err := ParseLocale(test.In)
			if err != nil {
				it.Fatal(err)
			}
			if v := tag.String(); v != test.Want {
				it.Errorf("expected %s, got %s", test.Want, v)
			}
		})
	}
	for _, locale := range []string{"", "not a locale", "xx_YY_ZZ_WW.UTF-8"} {
		if _, err := ParseLocale(locale); !errors.Is(err, ErrLocale) {
			t.Errorf("%q: expected ErrLocale, got %v", locale, err)
		}
	}
}

func TestExpandLocalized(t *testing.T) {
	now := time.Date(2024, time.March, 7, 9, 5, 0, 0, time.UTC)
	tests := []struct {
		Locale, Template, Want string
	}{
		{"en_US.UTF-8", "%d.%b", "07.Mar"},
		{"de_DE.UTF-8", "%d.%b", "07.Mär"},
		{"de_DE.UTF-8", "%A %e. %B", "Donnerstag  7. März"},
		{"fr_FR.UTF-8", "%a %d %b", "jeu. 07 mars"},
		{"de_DE.UTF-8", "100%% %H:%M", "100% 09:05"},
		{"ja_JP.UTF-8", "%b", "Mar"},
	}
	for _, test := range tests {
		t.Run(test.Locale+" "+test.Template, func(it *testing.T) {
			tag, err := ParseLocale(test.Locale)
			if err != nil {
				it.Fatal(err)
			}
			if v := expand(test.Template, now, namesFor(tag)); v != test.Want {
				it.Errorf("expected %q, got %q", test.Want, v)
			}
		})
	}
}

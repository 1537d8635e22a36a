package text

import (
	"time"
	"unicode/utf8"

	"github.com/ncruces/go-strftime"

	"github.com/BeatGlow/pixelclock/pixel"
)

// Limits of the text overlay.
const (
	MaxItems = 5
	MaxLen   = 31
	MaxSize  = 4
)

// Align is the horizontal placement of a text item.
type Align int

// Alignments.
const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Line is the vertical placement of a text item.
type Line int

// Lines.
const (
	LineTop Line = iota
	LineMiddle
	LineBottom
)

// Fonts.
const (
	FontRegular = iota
	FontSmall
)

// Item is one text slot of the overlay. Text may contain strftime
// directives which are expanded at render time.
type Item struct {
	Text    string
	Color   pixel.CRGB16
	Font    int
	OffsetX int
	OffsetY int
	Align   Align
	Size    int
	Line    Line
}

// DefaultItems is the overlay shown on a fresh device: the time in the middle
// and the date at the bottom.
func DefaultItems() []Item {
	white := pixel.CRGB16{V: 0xffff}
	return []Item{
		{Text: "%H:%M", Color: white, OffsetX: 1, OffsetY: -3, Align: AlignCenter, Size: 2, Line: LineMiddle},
		{Text: "%d.%b", Color: white, OffsetX: 3, OffsetY: -1, Align: AlignCenter, Size: 1, Line: LineBottom},
	}
}

// Normalize clamps items to the overlay limits. At most MaxItems are kept,
// text is cut to MaxLen bytes and out of range enums fall back to defaults.
func Normalize(items []Item) []Item {
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	out := make([]Item, len(items))
	for i, item := range items {
		item.Text = truncate(item.Text, MaxLen)
		if item.Size < 1 {
			item.Size = 1
		} else if item.Size > MaxSize {
			item.Size = MaxSize
		}
		if item.Align < AlignLeft || item.Align > AlignRight {
			item.Align = AlignCenter
		}
		if item.Line < LineTop || item.Line > LineBottom {
			item.Line = LineMiddle
		}
		if item.Font != FontSmall {
			item.Font = FontRegular
		}
		out[i] = item
	}
	return out
}

// Expand replaces the strftime directives in template with t.
func Expand(template string, t time.Time) string {
	return truncate(strftime.Format(template, t), MaxLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

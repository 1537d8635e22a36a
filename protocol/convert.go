package protocol

import (
	"fmt"

	"github.com/BeatGlow/pixelclock/pixel"
	"github.com/BeatGlow/pixelclock/settings"
	"github.com/BeatGlow/pixelclock/text"
)

// Item converts a wire text slot. Out of range enums are left for
// text.Normalize; only the color can fail.
func (t TextItem) Item() (text.Item, error) {
	item := text.Item{
		Text:    t.Text,
		Font:    t.Font,
		OffsetX: t.OffsetX,
		OffsetY: t.OffsetY,
		Align:   text.Align(t.Align),
		Size:    t.Size,
		Line:    text.Line(t.Line),
		Color:   pixel.CRGB16{V: 0xffff},
	}
	if t.Color != "" {
		c, err := pixel.ParseHex(t.Color)
		if err != nil {
			return text.Item{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		item.Color = c
	}
	return item, nil
}

// NewTextItem is the wire form of item.
func NewTextItem(item text.Item) TextItem {
	return TextItem{
		Text:    item.Text,
		Line:    int(item.Line),
		OffsetX: item.OffsetX,
		OffsetY: item.OffsetY,
		Size:    item.Size,
		Align:   int(item.Align),
		Font:    item.Font,
		Color:   item.Color.Hex(),
	}
}

// NewSettings builds the matrixSettings message. Empty text slots are
// omitted.
func NewSettings(s settings.Settings, items []text.Item) Settings {
	out := Settings{
		Action:             TagSettings,
		CustomData:         s.CustomData.Enabled,
		CustomDataServer:   s.CustomData.Server,
		CustomDataInterval: s.CustomData.Interval,
		CompositionMode:    s.Display.CompositionMode,
		Brightness:         s.Display.Brightness,
		Timezone:           s.Time.Timezone,
		Locale:             s.Time.Locale,
		Text:               make([]TextItem, 0, len(items)),
	}
	for _, item := range items {
		if item.Text == "" {
			continue
		}
		out.Text = append(out.Text, NewTextItem(item))
	}
	return out
}

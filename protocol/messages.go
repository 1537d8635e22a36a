package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Outbound action tags.
const (
	TagSettings = "matrixSettings"
	TagPixels   = "matrixPixels"
	TagProgress = "updateProgress"
)

// Envelope is the part every inbound message has in common.
type Envelope struct {
	Action string `json:"action"`
}

// Decode unmarshals payload into v. Malformed JSON is reported as ErrParse,
// fields of the wrong type as ErrValidation.
func Decode(payload []byte, v any) error {
	err := json.Unmarshal(bytes.TrimRight(payload, "\x00"), v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: field %q: %v", ErrValidation, typeErr.Field, err)
	}
	return fmt.Errorf("%w: %v", ErrParse, err)
}

// DecodeEnvelope reads the action tag of payload.
func DecodeEnvelope(payload []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(bytes.TrimRight(payload, "\x00"), &env); err != nil {
		return Unknown, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if env.Action == "" {
		return Unknown, fmt.Errorf("%w: missing action", ErrParse)
	}
	return ParseAction(env.Action)
}

// Pixel is one entry of a drawpixel batch.
type Pixel struct {
	P [2]int `json:"p"`
	C string `json:"c"`
}

// DrawPixelRequest is the drawpixel payload.
type DrawPixelRequest struct {
	Data []Pixel `json:"data"`
}

// DrawImageRequest is the drawImage payload, colors in row-major order.
type DrawImageRequest struct {
	Data []string `json:"data"`
}

// FillRequest is the fill payload.
type FillRequest struct {
	Color string `json:"color"`
}

// ToggleOverlayRequest is the toggleClock payload.
type ToggleOverlayRequest struct {
	Visible bool `json:"visible"`
}

// TextItem is the wire form of one text slot.
type TextItem struct {
	Text    string `json:"text"`
	Line    int    `json:"line"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
	Size    int    `json:"size"`
	Align   int    `json:"align"`
	Font    int    `json:"font"`
	Color   string `json:"color"`
}

// SetTextRequest is the setText payload.
type SetTextRequest struct {
	Text []TextItem `json:"text"`
}

// CompositionModeRequest is the compositionMode payload.
type CompositionModeRequest struct {
	Mode int `json:"mode"`
}

// BrightnessRequest is the setBrightness payload.
type BrightnessRequest struct {
	Brightness int `json:"brightness"`
}

// TimezoneRequest is the setTimeZone payload.
type TimezoneRequest struct {
	Timezone string `json:"timezone"`
}

// LocaleRequest is the setLocale payload.
type LocaleRequest struct {
	Locale string `json:"locale"`
}

// CustomDataOptions configure the custom data fetcher.
type CustomDataOptions struct {
	UpdateInterval int    `json:"updateInterval"`
	Server         string `json:"server"`
}

// CustomDataRequest is the customData payload.
type CustomDataRequest struct {
	Options CustomDataOptions `json:"options"`
}

// Settings is the matrixSettings message.
type Settings struct {
	Action             string     `json:"action"`
	CustomData         bool       `json:"customData"`
	CustomDataServer   string     `json:"customDataServer"`
	CustomDataInterval int        `json:"customDataInterval"`
	CompositionMode    int        `json:"compositionMode"`
	Brightness         int        `json:"brightness"`
	Timezone           string     `json:"timezone"`
	Locale             string     `json:"locale"`
	Text               []TextItem `json:"text"`
}

// Pixels is one band of a matrixPixels dump. LineEnd is exclusive.
type Pixels struct {
	Action    string     `json:"action"`
	Layer     string     `json:"layer"`
	LineStart int        `json:"line-start"`
	LineEnd   int        `json:"line-end"`
	Data      [][]string `json:"data"`
}

// Progress is the updateProgress message.
type Progress struct {
	Action   string `json:"action"`
	Progress int    `json:"progress"`
}

package protocol

import "fmt"

// Action identifies an inbound command.
type Action uint8

// Known actions.
const (
	Unknown Action = iota
	DrawPixel
	DrawImage
	Clear
	Fill
	ToggleOverlay
	SetText
	SetCompositionMode
	SetBrightness
	SetTimezone
	SetLocale
	ConfigureCustomData
	QueryPixels
	QueryState
	ResetNetwork
)

var actionTags = [...]string{
	DrawPixel:           "drawpixel",
	DrawImage:           "drawImage",
	Clear:               "clear",
	Fill:                "fill",
	ToggleOverlay:       "toggleClock",
	SetText:             "setText",
	SetCompositionMode:  "compositionMode",
	SetBrightness:       "setBrightness",
	SetTimezone:         "setTimeZone",
	SetLocale:           "setLocale",
	ConfigureCustomData: "customData",
	QueryPixels:         "getPixels",
	QueryState:          "getState",
	ResetNetwork:        "reset",
}

var actionByTag = func() map[string]Action {
	m := make(map[string]Action, len(actionTags))
	for a, tag := range actionTags {
		if tag != "" {
			m[tag] = Action(a)
		}
	}
	return m
}()

// ParseAction maps a wire tag to an Action. Tags are case sensitive.
func ParseAction(tag string) (Action, error) {
	if a, ok := actionByTag[tag]; ok {
		return a, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownAction, tag)
}

// Tag is the wire name of the action.
func (a Action) Tag() string {
	if int(a) < len(actionTags) {
		return actionTags[a]
	}
	return ""
}

func (a Action) String() string {
	if tag := a.Tag(); tag != "" {
		return tag
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

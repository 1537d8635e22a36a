package protocol

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	for a := DrawPixel; a <= ResetNetwork; a++ {
		t.Run(a.String(), func(it *testing.T) {
			v, err := ParseAction(a.Tag())
			if err != nil {
				it.Fatal(err)
			}
			if v != a {
				it.Errorf("expected %s, got %s", a, v)
			}
		})
	}

	for _, tag := range []string{"", "DrawPixel", "drawPixel", "explode"} {
		if _, err := ParseAction(tag); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("tag %q: expected ErrUnknownAction, got %v", tag, err)
		}
	}
}

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		In   string
		Want Action
		Err  error
	}{
		{`{"action":"setBrightness","brightness":8}`, SetBrightness, nil},
		{"{\"action\":\"clear\"}\x00", Clear, nil},
		{`{"action":"nope"}`, Unknown, ErrUnknownAction},
		{`{"brightness":8}`, Unknown, ErrParse},
		{`{"action":`, Unknown, ErrParse},
		{`{"action":5}`, Unknown, ErrParse},
	}
	for _, test := range tests {
		t.Run(test.In, func(it *testing.T) {
			v, err := DecodeEnvelope([]byte(test.In))
			if test.Err != nil {
				if !errors.Is(err, test.Err) {
					it.Errorf("expected %v, got %v", test.Err, err)
				}
				return
			}
			if err != nil {
				it.Fatal(err)
			}
			if v != test.Want {
				it.Errorf("expected %s, got %s", test.Want, v)
			}
		})
	}
}

func TestDecodeValidation(t *testing.T) {
	var req BrightnessRequest
	if err := Decode([]byte(`{"action":"setBrightness","brightness":"max"}`), &req); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := Decode([]byte(`{"action":"setBrightness","brightness":8}`), &req); err != nil {
		t.Fatal(err)
	} else if req.Brightness != 8 {
		t.Errorf("expected brightness 8, got %d", req.Brightness)
	}
}

package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLimitsClamp(t *testing.T) {
	tests := []struct {
		In, Want int
	}{
		{1, 3},
		{3, 3},
		{8, 8},
		{15, 15},
		{200, 15},
		{-5, 3},
	}
	for _, test := range tests {
		if v := DefaultLimits.Clamp(test.In); v != test.Want {
			t.Errorf("%d: expected %d, got %d", test.In, test.Want, v)
		}
	}
}

func TestValidate(t *testing.T) {
	s := Settings{
		Display:    Display{Brightness: 99, CompositionMode: 5},
		CustomData: CustomData{Interval: -7},
	}
	if !s.Validate(DefaultLimits) {
		t.Fatal("expected changes")
	}
	if s.Display.Brightness != 15 || s.Display.CompositionMode != 0 || s.CustomData.Interval != -1 {
		t.Errorf("expected clamped settings, got %+v", s)
	}
	if s.Time.Timezone != DefaultTimezone || s.Time.Locale != DefaultLocale {
		t.Errorf("expected default time settings, got %+v", s.Time)
	}
	if s.Validate(DefaultLimits) {
		t.Error("expected validated settings to be stable")
	}
}

func TestOpenMissing(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "config.json"), DefaultLimits, nil)
	if v := s.Get(); v != Default(DefaultLimits) {
		t.Errorf("expected defaults, got %+v", v)
	}
}

func TestOpenMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Open(path, DefaultLimits, nil)
	if v := s.Get(); v != Default(DefaultLimits) {
		t.Errorf("expected defaults, got %+v", v)
	}
}

func TestOpenCommented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
	// hand edited
	"display": {"brightness": 1, "compositionMode": 2,},
	"time": {"timezone": "Europe/Berlin"},
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	v := Open(path, DefaultLimits, nil).Get()
	if v.Display.Brightness != 3 {
		t.Errorf("expected brightness clamped to 3, got %d", v.Display.Brightness)
	}
	if v.Display.CompositionMode != 2 {
		t.Errorf("expected composition mode 2, got %d", v.Display.CompositionMode)
	}
	if v.Time.Timezone != "Europe/Berlin" {
		t.Errorf("expected timezone Europe/Berlin, got %q", v.Time.Timezone)
	}
	if v.Time.Locale != DefaultLocale {
		t.Errorf("expected default locale for missing key, got %q", v.Time.Locale)
	}
	if v.CustomData.Interval != -1 {
		t.Errorf("expected interval -1, got %d", v.CustomData.Interval)
	}
}

func TestStoreSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	s := Open(path, DefaultLimits, nil)

	got := s.Update(func(v *Settings) {
		v.Display.Brightness = 1
		v.Time.Locale = "de_DE.UTF-8"
		v.CustomData = CustomData{Enabled: true, Interval: 30, Server: "http://example.com/data"}
	})
	if got.Display.Brightness != 3 {
		t.Errorf("expected brightness 3, got %d", got.Display.Brightness)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if v := raw["display"]["brightness"]; v != float64(3) {
		t.Errorf("expected persisted brightness 3, got %v", v)
	}
	if v := raw["customData"]["server"]; v != "http://example.com/data" {
		t.Errorf("expected persisted server, got %v", v)
	}

	if v := Open(path, DefaultLimits, nil).Get(); v != got {
		t.Errorf("expected reloaded %+v, got %+v", got, v)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected temporary files to be gone, got %d entries", len(entries))
	}
}

func TestStoreReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := Open(path, DefaultLimits, nil)
	s.Update(func(v *Settings) { v.Display.Brightness = 10 })
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if v := Open(path, DefaultLimits, nil).Get(); v != Default(DefaultLimits) {
		t.Errorf("expected defaults after reset, got %+v", v)
	}
}

func TestStoreMemory(t *testing.T) {
	s := Open("", DefaultLimits, nil)
	s.Update(func(v *Settings) { v.Display.CompositionMode = 1 })
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if v := s.Get().Display.CompositionMode; v != 1 {
		t.Errorf("expected mode 1, got %d", v)
	}
}

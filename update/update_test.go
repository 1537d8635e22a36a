package update

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"
)

func TestTarget(t *testing.T) {
	tests := []struct {
		In, Want string
	}{
		{"firmware.bin", FirmwareImage},
		{"pixelclock-1.2.bin", FirmwareImage},
		{"spiffs.bin", FilesystemImage},
		{"FileSystem.img", FilesystemImage},
	}
	for _, test := range tests {
		if v := Target(test.In); v != test.Want {
			t.Errorf("%s: expected %s, got %s", test.In, test.Want, v)
		}
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 1<<20, nil)
	data := bytes.Repeat([]byte{0xa5}, 10000)

	var reports []int
	// One byte at a time to see every step.
	path, err := s.Apply(context.Background(), "firmware.bin", iotest.OneByteReader(bytes.NewReader(data)), int64(len(data)), func(p int) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, FirmwareImage) {
		t.Errorf("expected staged firmware, got %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("expected staged image to match upload")
	}

	if len(reports) < 3 || reports[0] != 0 || reports[len(reports)-1] != 100 {
		t.Fatalf("expected reports from 0 to 100, got %v", reports)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] <= reports[i-1] {
			t.Fatalf("expected increasing progress, got %v", reports)
		}
		if d := reports[i] - reports[i-1]; d < 5 && reports[i] < 99 {
			t.Fatalf("expected steps of at least 5%%, got %v", reports)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the staged image, got %d entries", len(entries))
	}
}

func TestApplyErrors(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 100, nil)

	if _, err := s.Apply(context.Background(), "fw.bin", bytes.NewReader(make([]byte, 200)), 200, nil); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge for announced size, got %v", err)
	}
	if _, err := s.Apply(context.Background(), "fw.bin", bytes.NewReader(make([]byte, 200)), -1, nil); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge for streamed size, got %v", err)
	}
	if _, err := s.Apply(context.Background(), "fw.bin", bytes.NewReader(nil), -1, nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Apply(ctx, "fw.bin", bytes.NewReader(make([]byte, 10)), 10, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected failed uploads to leave nothing behind, got %d entries", len(entries))
	}
}

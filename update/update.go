// Package update stages uploaded firmware images on disk and reports
// progress while they are written.
package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Errors
var (
	ErrTooLarge = errors.New("update: image too large")
	ErrEmpty    = errors.New("update: empty image")
)

// Staged image names.
const (
	FirmwareImage   = "firmware.bin"
	FilesystemImage = "filesystem.bin"
)

// Stager writes update images into a directory.
type Stager struct {
	dir     string
	maxSize int64
	log     *slog.Logger
}

// New returns a stager writing to dir. Images larger than maxSize are
// rejected.
func New(dir string, maxSize int64, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Stager{dir: dir, maxSize: maxSize, log: logger}
}

// Target returns the staged image name for an uploaded file name. Uploads
// whose name mentions "spiffs" or "filesystem" replace the file system image.
func Target(filename string) string {
	lower := strings.ToLower(filename)
	if strings.Contains(lower, "spiffs") || strings.Contains(lower, "filesystem") {
		return FilesystemImage
	}
	return FirmwareImage
}

// Apply copies r into the staging directory and returns the path of the
// staged image. size is the expected length, or -1 when unknown. report is
// called with the progress in percent: at 0, after every 5% step, from 99 on
// and at 100 once the image is in place.
func (s *Stager) Apply(ctx context.Context, filename string, r io.Reader, size int64, report func(int)) (string, error) {
	if report == nil {
		report = func(int) {}
	}
	if size > s.maxSize {
		return "", fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(s.maxSize)))
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, Target(filename))
	f, err := os.CreateTemp(s.dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	defer func() {
		if tmp != "" {
			_ = os.Remove(tmp)
		}
	}()

	s.log.Info("receiving update", "file", filename, "target", target, "size", humanize.Bytes(uint64(max(size, 0))))
	p := &progress{total: size, report: report, last: -1}
	p.update(0)

	w := &ctxWriter{ctx: ctx, w: io.MultiWriter(f, p)}
	n, err := io.Copy(w, io.LimitReader(r, s.maxSize+1))
	if err == nil && n > s.maxSize {
		err = fmt.Errorf("%w: more than %s", ErrTooLarge, humanize.IBytes(uint64(s.maxSize)))
	}
	if err == nil && n == 0 {
		err = ErrEmpty
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, target)
	}
	if err != nil {
		s.log.Warn("update failed", "file", filename, "error", err)
		return "", err
	}
	tmp = ""

	report(100)
	s.log.Info("update staged", "target", target, "size", humanize.Bytes(uint64(n)))
	return target, nil
}

type ctxWriter struct {
	ctx context.Context
	w   io.Writer
}

func (w *ctxWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// progress turns written bytes into throttled percentage reports.
type progress struct {
	total   int64
	written int64
	last    int
	report  func(int)
}

func (p *progress) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		pct := int(p.written * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		p.update(pct)
	}
	return len(b), nil
}

func (p *progress) update(pct int) {
	if pct == p.last {
		return
	}
	if pct == 0 || pct-p.last >= 5 || pct >= 99 {
		p.report(pct)
		p.last = pct
	}
}

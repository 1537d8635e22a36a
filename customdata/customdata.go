// Package customdata periodically fetches a document from a user supplied
// server and keeps the latest copy.
package customdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Errors
var (
	ErrStatus   = errors.New("customdata: unexpected HTTP status")
	ErrTooLarge = errors.New("customdata: response too large")
)

// Options control fetching.
type Options struct {
	Enabled  bool
	Interval time.Duration
	Server   string
}

// Active reports whether o describes a fetch schedule.
func (o Options) Active() bool {
	return o.Enabled && o.Interval > 0 && o.Server != ""
}

// Fetcher polls the configured server.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	log      *slog.Logger

	mu      sync.Mutex
	opts    Options
	last    []byte
	fetched time.Time
	wake    chan struct{}
}

// New returns an idle fetcher. Requests time out after timeout and responses
// larger than maxBytes are rejected.
func New(timeout time.Duration, maxBytes int64, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		log:      logger,
		last:     []byte("{}"),
		wake:     make(chan struct{}, 1),
	}
}

// Configure replaces the fetch options and restarts the schedule.
func (f *Fetcher) Configure(opts Options) {
	f.mu.Lock()
	f.opts = opts
	f.mu.Unlock()

	f.log.Info("custom data configured", "enabled", opts.Active(), "interval", opts.Interval, "server", opts.Server)
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Options returns the current options.
func (f *Fetcher) Options() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

// Last returns the most recently fetched document and when it was fetched.
// Before the first fetch it is an empty JSON object.
func (f *Fetcher) Last() ([]byte, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.last...), f.fetched
}

// Run fetches on schedule until ctx is done.
func (f *Fetcher) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		opts := f.Options()
		if opts.Active() {
			if _, err := f.Fetch(ctx); err != nil && ctx.Err() == nil {
				f.log.Warn("custom data fetch failed", "server", opts.Server, "error", err)
			}
			timer.Reset(opts.Interval)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}
	}
}

// Fetch performs one request to the configured server and stores the result.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	opts := f.Options()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.Server, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %s", ErrTooLarge, humanize.IBytes(uint64(f.maxBytes)))
	}

	f.mu.Lock()
	f.last = data
	f.fetched = time.Now()
	f.mu.Unlock()

	f.log.Debug("custom data received", "server", opts.Server, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

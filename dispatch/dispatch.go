// Package dispatch applies decoded protocol messages to the matrix, the
// settings and the collaborators around them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/BeatGlow/pixelclock/customdata"
	"github.com/BeatGlow/pixelclock/matrix"
	"github.com/BeatGlow/pixelclock/pixel"
	"github.com/BeatGlow/pixelclock/protocol"
	"github.com/BeatGlow/pixelclock/settings"
	"github.com/BeatGlow/pixelclock/text"
)

// Client is the connection a message arrived on.
type Client interface {
	// ID identifies the client in logs.
	ID() string
}

// Hub sends state to connected clients.
type Hub interface {
	// BroadcastState sends the current settings to every client.
	BroadcastState()

	// DumpPixels sends the background layer to one client.
	DumpPixels(to Client)
}

// Brightness controls the panel brightness.
type Brightness interface {
	SetBrightness(level int) error
}

// Fetcher is reconfigured by customData messages.
type Fetcher interface {
	Configure(customdata.Options)
}

// Network resets the network provisioning.
type Network interface {
	Reset(ctx context.Context) error
}

// Config wires a Dispatcher.
type Config struct {
	Controller *matrix.Controller
	Settings   *settings.Store
	Hub        Hub
	Brightness Brightness
	Fetcher    Fetcher
	Network    Network
	Logger     *slog.Logger
}

// Dispatcher routes complete payloads to their handler.
type Dispatcher struct {
	ctrl       *matrix.Controller
	store      *settings.Store
	hub        Hub
	brightness Brightness
	fetcher    Fetcher
	network    Network
	log        *slog.Logger
}

// New returns a dispatcher. Controller, Settings and Hub are required, the
// other collaborators are optional.
func New(config Config) *Dispatcher {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		ctrl:       config.Controller,
		store:      config.Settings,
		hub:        config.Hub,
		brightness: config.Brightness,
		fetcher:    config.Fetcher,
		network:    config.Network,
		log:        logger,
	}
}

// Dispatch decodes payload and runs the matching handler. Errors are logged
// and returned; none of them should end the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, from Client, payload []byte) error {
	action, err := protocol.DecodeEnvelope(payload)
	if err == nil {
		err = d.dispatch(ctx, from, action, payload)
	}
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, protocol.ErrUnknownAction) {
			level = slog.LevelInfo
		}
		d.log.Log(ctx, level, "message rejected", "client", from.ID(), "action", action, "error", err)
		return err
	}
	d.log.Debug("message handled", "client", from.ID(), "action", action)
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, from Client, action protocol.Action, payload []byte) error {
	switch action {
	case protocol.DrawPixel:
		return d.drawPixel(payload)
	case protocol.DrawImage:
		return d.drawImage(payload)
	case protocol.Clear:
		d.ctrl.Clear()
		return nil
	case protocol.Fill:
		return d.fill(payload)
	case protocol.ToggleOverlay:
		return d.toggleOverlay(payload)
	case protocol.SetText:
		return d.setText(payload)
	case protocol.SetCompositionMode:
		return d.setCompositionMode(payload)
	case protocol.SetBrightness:
		return d.setBrightness(payload)
	case protocol.SetTimezone:
		return d.setTimezone(payload)
	case protocol.SetLocale:
		return d.setLocale(payload)
	case protocol.ConfigureCustomData:
		return d.configureCustomData(payload)
	case protocol.QueryPixels:
		d.hub.DumpPixels(from)
		return nil
	case protocol.QueryState:
		d.hub.BroadcastState()
		return nil
	case protocol.ResetNetwork:
		return d.resetNetwork(ctx)
	case protocol.Unknown:
		return protocol.ErrUnknownAction
	default:
		panic(fmt.Sprintf("dispatch: unhandled action %s", action))
	}
}

func (d *Dispatcher) drawPixel(payload []byte) error {
	var req protocol.DrawPixelRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	points := make([]matrix.Point, 0, len(req.Data))
	for _, p := range req.Data {
		c, err := parseColor(p.C)
		if err != nil {
			return err
		}
		points = append(points, matrix.Point{X: p.P[0], Y: p.P[1], Color: c})
	}
	d.ctrl.SetPixels(points...)
	return nil
}

func (d *Dispatcher) drawImage(payload []byte) error {
	var req protocol.DrawImageRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	colors := make([]pixel.CRGB16, len(req.Data))
	for i, s := range req.Data {
		c, err := parseColor(s)
		if err != nil {
			return err
		}
		colors[i] = c
	}
	d.ctrl.DrawImage(colors)
	return nil
}

func (d *Dispatcher) fill(payload []byte) error {
	var req protocol.FillRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	c, err := parseColor(req.Color)
	if err != nil {
		return err
	}
	d.ctrl.Fill(c)
	return nil
}

func (d *Dispatcher) toggleOverlay(payload []byte) error {
	var req protocol.ToggleOverlayRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	d.ctrl.SetOverlayVisible(req.Visible)
	return nil
}

func (d *Dispatcher) setText(payload []byte) error {
	var req protocol.SetTextRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	if len(req.Text) > text.MaxItems {
		d.log.Debug("dropping excess text items", "count", len(req.Text), "max", text.MaxItems)
		req.Text = req.Text[:text.MaxItems]
	}
	items := make([]text.Item, 0, len(req.Text))
	for _, t := range req.Text {
		item, err := t.Item()
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	d.ctrl.SetText(items)
	d.hub.BroadcastState()
	return nil
}

func (d *Dispatcher) setCompositionMode(payload []byte) error {
	var req protocol.CompositionModeRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	mode := d.ctrl.SetMode(matrix.ParseMode(req.Mode))
	d.store.Update(func(s *settings.Settings) {
		s.Display.CompositionMode = int(mode)
	})
	d.persist()
	return nil
}

func (d *Dispatcher) setBrightness(payload []byte) error {
	var req protocol.BrightnessRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	level := d.store.Limits().Clamp(req.Brightness)
	if level != req.Brightness {
		d.log.Debug("brightness clamped", "requested", req.Brightness, "level", level)
	}
	if d.brightness != nil {
		if err := d.brightness.SetBrightness(level); err != nil {
			d.log.Warn("failed to set brightness", "level", level, "error", err)
		}
	}
	d.store.Update(func(s *settings.Settings) {
		s.Display.Brightness = level
	})
	d.persist()
	return nil
}

func (d *Dispatcher) setTimezone(payload []byte) error {
	var req protocol.TimezoneRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	loc, err := text.LoadLocation(req.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrValidation, err)
	}
	d.ctrl.SetLocation(loc)
	d.store.Update(func(s *settings.Settings) {
		s.Time.Timezone = req.Timezone
	})
	d.persist()
	return nil
}

func (d *Dispatcher) setLocale(payload []byte) error {
	var req protocol.LocaleRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	tag, err := text.ParseLocale(req.Locale)
	if err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrValidation, err)
	}
	d.ctrl.SetLocale(tag)
	d.store.Update(func(s *settings.Settings) {
		s.Time.Locale = req.Locale
	})
	d.persist()
	return nil
}

func (d *Dispatcher) configureCustomData(payload []byte) error {
	var req protocol.CustomDataRequest
	if err := protocol.Decode(payload, &req); err != nil {
		return err
	}
	opts := req.Options
	if opts.UpdateInterval < -1 {
		opts.UpdateInterval = -1
	}
	enabled := opts.UpdateInterval >= 1 && opts.Server != ""
	if d.fetcher != nil {
		d.fetcher.Configure(customdata.Options{
			Enabled:  enabled,
			Interval: time.Duration(opts.UpdateInterval) * time.Second,
			Server:   opts.Server,
		})
	}
	d.store.Update(func(s *settings.Settings) {
		s.CustomData = settings.CustomData{
			Enabled:  enabled,
			Interval: opts.UpdateInterval,
			Server:   opts.Server,
		}
	})
	d.persist()
	return nil
}

func (d *Dispatcher) resetNetwork(ctx context.Context) error {
	if d.network == nil {
		d.log.Warn("network reset requested but not available")
		return nil
	}
	d.log.Warn("resetting network provisioning")
	return d.network.Reset(ctx)
}

// persist saves the settings and broadcasts them. A failed save is logged;
// the live state and the broadcast stay authoritative.
func (d *Dispatcher) persist() {
	if err := d.store.Save(); err != nil {
		d.log.Error("failed to save settings", "error", err)
	}
	d.hub.BroadcastState()
}

func parseColor(s string) (pixel.CRGB16, error) {
	c, err := pixel.ParseHex(s)
	if err != nil {
		return pixel.CRGB16{}, fmt.Errorf("%w: %v", protocol.ErrValidation, err)
	}
	return c, nil
}

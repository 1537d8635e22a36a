// Command pixelclockd drives the matrix display and serves the browser UI
// and the WebSocket control protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/pixelclock/button"
	"github.com/BeatGlow/pixelclock/config"
	"github.com/BeatGlow/pixelclock/customdata"
	"github.com/BeatGlow/pixelclock/dispatch"
	"github.com/BeatGlow/pixelclock/display"
	"github.com/BeatGlow/pixelclock/display/framebuffer"
	"github.com/BeatGlow/pixelclock/matrix"
	"github.com/BeatGlow/pixelclock/netinfo"
	"github.com/BeatGlow/pixelclock/pixel"
	"github.com/BeatGlow/pixelclock/server"
	"github.com/BeatGlow/pixelclock/settings"
	"github.com/BeatGlow/pixelclock/text"
	"github.com/BeatGlow/pixelclock/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	level := slog.LevelInfo
	if flags.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := flags.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := settings.Open(cfg.SettingsFile, settings.Limits{
		Min:     cfg.Brightness.Min,
		Max:     cfg.Brightness.Max,
		Default: cfg.Brightness.Default,
	}, logger.With("component", "settings"))
	current := store.Get()

	ctrl, err := newController(cfg, current, logger)
	if err != nil {
		return err
	}

	panel, err := openDisplay(cfg.Display)
	if err != nil {
		return fmt.Errorf("opening %s display: %w", cfg.Display.Driver, err)
	}
	defer func() {
		if err := panel.Close(); err != nil {
			logger.Warn("closing display failed", "error", err)
		}
	}()
	logger.Info("display ready", "driver", cfg.Display.Driver, "bounds", panel.Bounds().Size())

	renderer := matrix.NewRenderer(ctrl, panel, cfg.Matrix.Tick, cfg.Brightness.Max, logger.With("component", "renderer"))
	if err = renderer.SetBrightness(current.Display.Brightness); err != nil {
		logger.Warn("setting brightness failed", "error", err)
	}

	network := netinfo.New(cfg.Network.Interface, cfg.Network.ResetCommand, logger.With("component", "network"))
	if cfg.Matrix.Splash > 0 {
		addr := network.Address()
		if addr == "" {
			addr = "offline"
		}
		ctrl.ShowSplash(addr, time.Now().Add(cfg.Matrix.Splash))
		logger.Info("device address", "address", addr)
	}

	if cfg.Button.Line >= 0 {
		btn := button.New(cfg.Button.Hold, func() {
			ctrl.ShowSplash("Reset", time.Now().Add(cfg.Matrix.Splash))
			if err := network.Reset(ctx); err != nil {
				logger.Warn("network reset failed", "error", err)
			}
		}, logger.With("component", "button"))
		line, err := button.Open(cfg.Button.Chip, cfg.Button.Line, btn)
		if err != nil {
			logger.Warn("reset button unavailable", "error", err)
		} else {
			defer line.Close()
		}
	}

	fetcher := customdata.New(cfg.CustomData.Timeout, cfg.CustomData.MaxBytes, logger.With("component", "customdata"))
	fetcher.Configure(customdata.Options{
		Enabled:  current.CustomData.Enabled,
		Interval: time.Duration(current.CustomData.Interval) * time.Second,
		Server:   current.CustomData.Server,
	})

	hub := server.NewHub(ctrl, store, cfg.WebSocket.MaxClients, cfg.Matrix.LinesPerMessage, logger.With("component", "hub"))
	dispatcher := dispatch.New(dispatch.Config{
		Controller: ctrl,
		Settings:   store,
		Hub:        hub,
		Brightness: renderer,
		Fetcher:    fetcher,
		Network:    network,
		Logger:     logger.With("component", "dispatch"),
	})
	srv := server.New(hub, dispatcher, server.Config{
		WebSocket: cfg.WebSocket,
		WebRoot:   cfg.WebRoot,
		Stager:    update.New(cfg.Update.Dir, cfg.Update.MaxSize, logger.With("component", "update")),
		Logger:    logger.With("component", "server"),
	})

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 3)
	)
	for name, fn := range map[string]func(context.Context) error{
		"renderer":   renderer.Run,
		"customdata": fetcher.Run,
		"server":     func(ctx context.Context) error { return srv.ListenAndServe(ctx, cfg.Listen) },
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	logger.Info("pixelclock running", "listen", cfg.Listen, "size", fmt.Sprintf("%dx%d", cfg.Display.Width, cfg.Display.Height))
	select {
	case <-ctx.Done():
	case err = <-errs:
		logger.Error("component failed", "error", err)
	}
	stop()
	logger.Info("shutting down")
	wg.Wait()
	return err
}

func newController(cfg *config.Config, current settings.Settings, logger *slog.Logger) (*matrix.Controller, error) {
	silhouette, err := pixel.ParseHex(cfg.Matrix.SilhouetteColor)
	if err != nil {
		return nil, err
	}
	loc, err := text.LoadLocation(current.Time.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", "timezone", current.Time.Timezone, "error", err)
		loc = time.UTC
	}

	ctrl, err := matrix.NewController(matrix.Config{
		Width:  cfg.Display.Width,
		Height: cfg.Display.Height,
		Compositor: matrix.Compositor{
			BlendRatio: uint8(cfg.Matrix.BlendRatio),
			Silhouette: silhouette,
		},
		Mode:     matrix.ParseMode(current.Display.CompositionMode),
		Location: loc,
	})
	if err != nil {
		return nil, err
	}

	if tag, err := text.ParseLocale(current.Time.Locale); err != nil {
		logger.Warn("invalid locale", "locale", current.Time.Locale, "error", err)
	} else {
		ctrl.SetLocale(tag)
	}
	return ctrl, nil
}

func openDisplay(c config.DisplayConfig) (display.Display, error) {
	rotation, err := display.ParseRotation(c.Rotation)
	if err != nil {
		return nil, err
	}

	switch c.Driver {
	case "framebuffer":
		return framebuffer.Open(c.Device, rotation)

	case "st7735", "st7789":
		if _, err = host.Init(); err != nil {
			return nil, fmt.Errorf("initializing host drivers: %w", err)
		}
		spiConfig := display.DefaultSPIConfig
		spiConfig.Port = c.SPI.Port
		spiConfig.Reset = gpioreg.ByName(c.SPI.Reset)
		spiConfig.DC = gpioreg.ByName(c.SPI.DC)
		if c.SPI.SpeedHz > 0 {
			spiConfig.SpeedHz = c.SPI.SpeedHz
		}
		conn, err := display.OpenSPI(&spiConfig)
		if err != nil {
			return nil, err
		}

		var backlight gpio.PinOut
		if c.SPI.Backlight != "" {
			if pin := gpioreg.ByName(c.SPI.Backlight); pin != nil {
				backlight = pin
			}
		}
		panelConfig := &display.Config{
			Width:     c.SPI.PanelWidth,
			Height:    c.SPI.PanelHeight,
			Rotation:  rotation,
			Backlight: backlight,
		}
		var d display.Display
		if c.Driver == "st7735" {
			d, err = display.NewST7735(conn, panelConfig)
		} else {
			d, err = display.NewST7789(conn, panelConfig)
		}
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return d, nil

	default:
		return display.NewMemory(&display.Config{
			Width:    c.Width,
			Height:   c.Height,
			Rotation: rotation,
		})
	}
}

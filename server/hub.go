package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gobwas/ws"

	"github.com/BeatGlow/pixelclock/dispatch"
	"github.com/BeatGlow/pixelclock/matrix"
	"github.com/BeatGlow/pixelclock/protocol"
	"github.com/BeatGlow/pixelclock/settings"
)

// ErrFull is returned when the client limit is reached.
var ErrFull = errors.New("server: too many clients")

// Hub tracks the connected clients and sends state to them. Sends are best
// effort: a client whose queue is full misses the message.
type Hub struct {
	ctrl            *matrix.Controller
	store           *settings.Store
	maxClients      int
	linesPerMessage int
	log             *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub returns an empty hub reporting the state of ctrl and store.
func NewHub(ctrl *matrix.Controller, store *settings.Store, maxClients, linesPerMessage int, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if linesPerMessage <= 0 {
		linesPerMessage = 4
	}
	return &Hub{
		ctrl:            ctrl,
		store:           store,
		maxClients:      maxClients,
		linesPerMessage: linesPerMessage,
		log:             logger,
		clients:         make(map[string]*Client),
	}
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return ErrFull
	}
	h.clients[c.ID()] = c
	h.log.Info("client connected", "client", c.ID(), "clients", len(h.clients))
	return nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID()]; ok {
		delete(h.clients, c.ID())
		h.log.Info("client disconnected", "client", c.ID(), "clients", len(h.clients))
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.closeWith(ws.StatusGoingAway, "server shutting down")
		_ = c.Close()
	}
}

// Broadcast sends v to every client.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("failed to encode broadcast", "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.sendRaw(data)
	}
}

// State returns the matrixSettings message for the current state.
func (h *Hub) State() protocol.Settings {
	return protocol.NewSettings(h.store.Get(), h.ctrl.Text())
}

// BroadcastState sends the current settings to every client.
func (h *Hub) BroadcastState() {
	h.Broadcast(h.State())
}

// progressHold is how long the panel shows the last progress report.
const progressHold = 5 * time.Second

// Progress sends an update progress percentage to every client and shows it
// on the panel.
func (h *Hub) Progress(percent int) {
	h.ctrl.ShowProgress(percent, time.Now().Add(progressHold))
	h.Broadcast(protocol.Progress{Action: protocol.TagProgress, Progress: percent})
}

// DumpPixels sends the background layer to one client, a band of rows per
// message.
func (h *Hub) DumpPixels(to dispatch.Client) {
	h.mu.RLock()
	c, ok := h.clients[to.ID()]
	h.mu.RUnlock()
	if !ok {
		return
	}
	for _, band := range PixelBands(h.ctrl, h.linesPerMessage) {
		if !c.Send(band) {
			h.log.Warn("pixel dump truncated", "client", c.ID(), "line-start", band.LineStart)
			return
		}
	}
}

// PixelBands snapshots the background layer of ctrl as matrixPixels
// messages of at most lines rows each.
func PixelBands(ctrl *matrix.Controller, lines int) []protocol.Pixels {
	bg := ctrl.Background()
	b := bg.Bounds()
	var out []protocol.Pixels
	for start := 0; start < b.Dy(); start += lines {
		end := min(start+lines, b.Dy())
		band := protocol.Pixels{
			Action:    protocol.TagPixels,
			Layer:     "bg",
			LineStart: start,
			LineEnd:   end,
			Data:      make([][]string, 0, end-start),
		}
		for y := start; y < end; y++ {
			row := make([]string, b.Dx())
			for x := range row {
				row[x] = bg.CRGB16At(x, y).Hex()
			}
			band.Data = append(band.Data, row)
		}
		out = append(out, band)
	}
	return out
}

var _ dispatch.Hub = (*Hub)(nil)

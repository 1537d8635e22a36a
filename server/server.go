// Package server exposes the matrix over HTTP and a WebSocket control
// connection.
//
// Routes:
//
//	GET  /ws        WebSocket control protocol
//	GET  /update    firmware upload form
//	POST /doUpdate  firmware upload, progress is broadcast to all clients
//	GET  /healthz   liveness probe
//	GET  /          browser UI from the web root
package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/ws"

	"github.com/BeatGlow/pixelclock/config"
	"github.com/BeatGlow/pixelclock/dispatch"
	"github.com/BeatGlow/pixelclock/update"
)

const (
	shutdownTimeout = 5 * time.Second
	placeholder     = "%websocketUrl%"
	uploadForm      = "<form method='POST' action='/doUpdate' enctype='multipart/form-data'><input type='file' name='update'><input type='submit' value='Update'></form>"
)

// Dispatcher handles complete inbound messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, from dispatch.Client, payload []byte) error
}

// Config configures a Server.
type Config struct {
	WebSocket config.WebSocketConfig

	// WebRoot is the directory with the browser UI, empty disables it.
	WebRoot string

	// Stager receives firmware uploads, nil disables the update routes.
	Stager *update.Stager

	Logger *slog.Logger
}

// Server serves the HTTP routes.
type Server struct {
	hub        *Hub
	dispatcher Dispatcher
	ws         config.WebSocketConfig
	webRoot    string
	stager     *update.Stager
	log        *slog.Logger
	mux        *http.ServeMux
	wg         sync.WaitGroup
	updating   sync.Mutex
}

// New returns a server for hub and dispatcher.
func New(hub *Hub, dispatcher Dispatcher, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		hub:        hub,
		dispatcher: dispatcher,
		ws:         config.WebSocket,
		webRoot:    config.WebRoot,
		stager:     config.Stager,
		log:        logger,
		mux:        http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /ws", s.serveWebSocket)
	s.mux.HandleFunc("GET /healthz", s.serveHealth)
	if s.stager != nil {
		s.mux.HandleFunc("GET /update", s.serveUpdateForm)
		s.mux.HandleFunc("POST /doUpdate", s.serveUpdate)
	}
	if s.webRoot != "" {
		s.mux.Handle("GET /", s.static())
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then disconnects all
// clients and shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", l.Addr().String())
		errs <- srv.Serve(l)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.ws.MaxClients > 0 && s.hub.Len() >= s.ws.MaxClients {
		s.log.Warn("rejecting client, too many connections", "remote", r.RemoteAddr)
		http.Error(w, ErrFull.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, rw, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	var br *bufio.Reader
	if rw != nil {
		br = rw.Reader
	}
	c := newClient(conn, br, s.ws, s.log)
	if err = s.hub.register(c); err != nil {
		c.closeWith(ws.StatusPolicyViolation, err.Error())
		_ = c.Close()
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		s.hub.unregister(c)
		_ = c.Close()
	}()

	go c.writeLoop()
	c.Send(s.hub.State())

	ctx := r.Context()
	err = c.readLoop(ctx, func(ctx context.Context, payload []byte) {
		_ = s.dispatcher.Dispatch(ctx, c, payload)
	})
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			s.log.Info("client timed out", "client", c.ID())
			return
		}
		s.log.Debug("client read failed", "client", c.ID(), "error", err)
	}
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok %d clients\n", s.hub.Len())
}

func (s *Server) serveUpdateForm(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, uploadForm)
}

func (s *Server) serveUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.updating.TryLock() {
		http.Error(w, "update in progress", http.StatusConflict)
		return
	}
	defer s.updating.Unlock()

	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			http.Error(w, "missing update file", http.StatusBadRequest)
			return
		} else if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if part.FormName() != "update" {
			_ = part.Close()
			continue
		}

		size := r.ContentLength
		s.log.Info("update upload", "remote", r.RemoteAddr, "file", part.FileName(), "request", humanize.IBytes(uint64(max(size, 0))))
		path, err := s.stager.Apply(r.Context(), part.FileName(), part, size, s.hub.Progress)
		_ = part.Close()
		switch {
		case errors.Is(err, update.ErrTooLarge):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		case errors.Is(err, update.ErrEmpty):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			s.log.Error("update failed", "file", part.FileName(), "error", err)
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}

		s.log.Debug("update response sent", "path", path)
		w.Header().Set("Refresh", "20")
		w.Header().Set("Location", "/")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "updatefinished")
		return
	}
}

// static serves the web root. index.html gets the client facing host
// substituted for the WebSocket URL placeholder.
func (s *Server) static() http.Handler {
	files := http.FileServer(http.Dir(s.webRoot))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			w.Header().Set("Cache-Control", "max-age=14400")
			files.ServeHTTP(w, r)
			return
		}

		data, err := os.ReadFile(filepath.Join(s.webRoot, "index.html"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		data = bytes.ReplaceAll(data, []byte(placeholder), []byte(strings.TrimSpace(r.Host)))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	})
}

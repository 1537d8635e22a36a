package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/BeatGlow/pixelclock/config"
	"github.com/BeatGlow/pixelclock/protocol"
)

// Client is one WebSocket connection.
type Client struct {
	id     string
	conn   net.Conn
	r      *bufio.Reader
	cfg    config.WebSocketConfig
	engine *protocol.Engine
	log    *slog.Logger

	writeMu sync.Mutex
	send    chan []byte
	done    chan struct{}
	once    sync.Once
}

func newClient(conn net.Conn, r *bufio.Reader, cfg config.WebSocketConfig, logger *slog.Logger) *Client {
	id := uuid.NewString()
	if r == nil {
		r = bufio.NewReader(conn)
	}
	return &Client{
		id:     id,
		conn:   conn,
		r:      r,
		cfg:    cfg,
		engine: protocol.NewEngine(cfg.BufferSize),
		log:    logger.With("client", id, "remote", conn.RemoteAddr().String()),
		send:   make(chan []byte, cfg.SendQueue),
		done:   make(chan struct{}),
	}
}

// ID is the unique client id.
func (c *Client) ID() string {
	return c.id
}

// Send queues v for the client. It reports false when the message was
// dropped because the queue is full or the client is gone.
func (c *Client) Send(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("failed to encode message", "error", err)
		return false
	}
	return c.sendRaw(data)
}

func (c *Client) sendRaw(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.log.Debug("send queue full, message dropped", "size", len(data))
		return false
	}
}

// Close ends the connection. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writeFrame(f ws.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return ws.WriteFrame(c.conn, f)
}

func (c *Client) writeMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return wsutil.WriteServerMessage(c.conn, ws.OpText, data)
}

// writeLoop drains the send queue and pings the peer until the client is
// closed or a write fails.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.writeMessage(data); err != nil {
				c.log.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.writeFrame(ws.NewPingFrame(nil)); err != nil {
				c.log.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

// setReadDeadline applies the reassembly timeout while a message is being
// accumulated and the pong wait otherwise.
func (c *Client) setReadDeadline(discarding bool) {
	timeout := c.cfg.PongWait
	if !discarding && c.engine.State() == protocol.Accumulating && c.cfg.ReassemblyTimeout > 0 {
		timeout = c.cfg.ReassemblyTimeout
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
}

// readLoop turns WebSocket frames into fragments for the reassembly engine
// and hands every complete message to handle. It returns when the peer
// closes the connection or a transport error occurs.
func (c *Client) readLoop(ctx context.Context, handle func(ctx context.Context, payload []byte)) error {
	defer c.engine.Reset()

	var (
		chunk  = make([]byte, c.cfg.ReadChunk)
		state  = ws.StateServerSide
		offset int
		total  int
		failed bool
	)
	for {
		c.setReadDeadline(failed)
		h, err := ws.ReadHeader(c.r)
		if err != nil {
			return err
		}
		if err = ws.CheckHeader(h, state); err != nil {
			c.closeWith(ws.StatusProtocolError, err.Error())
			return err
		}

		if h.OpCode.IsControl() {
			if err = c.control(h); err != nil {
				return err
			}
			continue
		}

		if h.Fin {
			state = state.Clear(ws.StateFragmented)
		} else {
			state = state.Set(ws.StateFragmented)
		}
		if h.OpCode != ws.OpContinuation {
			offset, total, failed = 0, 0, false
		}
		total += int(h.Length)
		if h.Fin && total == 0 {
			c.log.Debug("ignoring empty message")
			continue
		}

		for pos := int64(0); pos < h.Length; {
			n := int(min(h.Length-pos, int64(len(chunk))))
			c.setReadDeadline(failed)
			if _, err = io.ReadFull(c.r, chunk[:n]); err != nil {
				return err
			}
			if h.Masked {
				ws.Cipher(chunk[:n], h.Mask, int(pos))
			}
			pos += int64(n)

			if failed {
				offset += n
				continue
			}
			payload, err := c.engine.Feed(protocol.Fragment{
				Final:   h.Fin && pos == h.Length,
				Offset:  offset,
				Total:   total,
				Payload: chunk[:n],
			})
			offset += n
			if err != nil {
				c.log.Warn("message discarded", "error", err, "offset", offset-n, "total", total)
				failed = true
				continue
			}
			if payload != nil {
				handle(ctx, payload)
			}
		}
		if failed && h.Fin {
			// Some framing errors leave the engine accumulating.
			c.engine.Reset()
		}
	}
}

func (c *Client) control(h ws.Header) error {
	payload := make([]byte, h.Length)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return err
	}
	if h.Masked {
		ws.Cipher(payload, h.Mask, 0)
	}

	switch h.OpCode {
	case ws.OpPing:
		return c.writeFrame(ws.NewPongFrame(payload))
	case ws.OpPong:
		return nil
	case ws.OpClose:
		code, reason := ws.ParseCloseFrameData(payload)
		c.log.Debug("peer closed", "code", code, "reason", reason)
		c.closeWith(ws.StatusNormalClosure, "")
		return io.EOF
	default:
		return nil
	}
}

func (c *Client) closeWith(code ws.StatusCode, reason string) {
	if err := c.writeFrame(ws.NewCloseFrame(ws.NewCloseFrameBody(code, reason))); err != nil && !errors.Is(err, net.ErrClosed) {
		c.log.Debug("close frame failed", "error", err)
	}
}

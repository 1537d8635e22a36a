// Command pixelctl talks to a pixelclockd over its WebSocket protocol.
//
// Usage:
//
//	pixelctl [flags] state
//	pixelctl [flags] send '{"action":"clear"}'
//	pixelctl [flags] brightness 8
//	pixelctl [flags] mode 1
//	pixelctl [flags] text '%H:%M' ['%d.%b' ...]
//	pixelctl [flags] clear
//	pixelctl [flags] fill '#ff0000'
//	pixelctl [flags] pixel 10 5 '#00ff00'
//	pixelctl [flags] image logo.svg
//	pixelctl [flags] dump out.png
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"

	"github.com/BeatGlow/pixelclock/protocol"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	url     string
	timeout time.Duration
	width   int
	height  int
	color   string
	size    int
	line    int
	debug   bool
}

func run(args []string) error {
	var (
		opts options
		fs   = pflag.NewFlagSet("pixelctl", pflag.ContinueOnError)
	)
	fs.StringVarP(&opts.url, "url", "u", "ws://pixelclock.local/ws", "WebSocket URL of the display")
	fs.DurationVarP(&opts.timeout, "timeout", "t", 5*time.Second, "time to wait for replies")
	fs.IntVar(&opts.width, "width", 64, "panel width for images")
	fs.IntVar(&opts.height, "height", 32, "panel height for images and dumps")
	fs.StringVar(&opts.color, "color", "#ffffff", "text color")
	fs.IntVar(&opts.size, "size", 1, "text size")
	fs.IntVar(&opts.line, "line", 1, "first text line (0 top, 1 middle, 2 bottom)")
	fs.BoolVar(&opts.debug, "debug", false, "log protocol traffic")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	msg, err := buildMessage(cmd, cmdArgs, &opts)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(opts.url, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", opts.url, err)
	}
	defer conn.Close()
	c := &client{conn: conn, timeout: opts.timeout, log: logger}

	// The server greets every client with its settings.
	greeting, err := c.wait(protocol.TagSettings)
	if err != nil {
		return err
	}

	switch cmd {
	case "state":
		return printJSON(greeting)
	case "dump":
		if len(cmdArgs) != 1 {
			return errors.New("usage: dump FILE.png")
		}
		return c.dump(cmdArgs[0], opts.height)
	}

	if err = c.send(msg); err != nil {
		return err
	}
	if changesSettings(cmd) {
		state, err := c.wait(protocol.TagSettings)
		if err != nil {
			return err
		}
		return printJSON(state)
	}
	return nil
}

// buildMessage returns the message for cmd, or nil for commands that build
// their own exchange.
func buildMessage(cmd string, args []string, opts *options) (any, error) {
	need := func(n int, usage string) error {
		if len(args) < n {
			return fmt.Errorf("usage: %s %s", cmd, usage)
		}
		return nil
	}
	atoi := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", cmd, s)
		}
		return n, nil
	}

	switch cmd {
	case "state", "dump":
		return nil, nil

	case "send":
		if err := need(1, "JSON"); err != nil {
			return nil, err
		}
		if !json.Valid([]byte(args[0])) {
			return nil, errors.New("send: invalid JSON")
		}
		return json.RawMessage(args[0]), nil

	case "brightness":
		if err := need(1, "LEVEL"); err != nil {
			return nil, err
		}
		n, err := atoi(args[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{"action": "setBrightness", "brightness": n}, nil

	case "mode":
		if err := need(1, "MODE"); err != nil {
			return nil, err
		}
		n, err := atoi(args[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{"action": "compositionMode", "mode": n}, nil

	case "text":
		if err := need(1, "TEMPLATE..."); err != nil {
			return nil, err
		}
		items := make([]protocol.TextItem, 0, len(args))
		for i, s := range args {
			items = append(items, protocol.TextItem{
				Text:  s,
				Line:  min(opts.line+i, 2),
				Size:  opts.size,
				Align: 1,
				Color: opts.color,
			})
		}
		return map[string]any{"action": "setText", "text": items}, nil

	case "clear":
		return map[string]any{"action": "clear"}, nil

	case "fill":
		if err := need(1, "COLOR"); err != nil {
			return nil, err
		}
		return map[string]any{"action": "fill", "color": args[0]}, nil

	case "pixel":
		if err := need(3, "X Y COLOR"); err != nil {
			return nil, err
		}
		x, err := atoi(args[0])
		if err != nil {
			return nil, err
		}
		y, err := atoi(args[1])
		if err != nil {
			return nil, err
		}
		return map[string]any{"action": "drawpixel", "data": []protocol.Pixel{{P: [2]int{x, y}, C: args[2]}}}, nil

	case "image":
		if err := need(1, "FILE"); err != nil {
			return nil, err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, err := loadImage(args[0], f, opts.width, opts.height)
		if err != nil {
			return nil, err
		}
		return map[string]any{"action": "drawImage", "data": imageColors(img)}, nil

	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

func changesSettings(cmd string) bool {
	switch cmd {
	case "brightness", "mode", "text":
		return true
	default:
		return false
	}
}

type client struct {
	conn    *websocket.Conn
	timeout time.Duration
	log     *slog.Logger
}

func (c *client) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.log.Debug("send", "size", len(data))
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// wait reads messages until one with the given action arrives.
func (c *client) wait(action string) (json.RawMessage, error) {
	deadline := time.Now().Add(c.timeout)
	for {
		_ = c.conn.SetReadDeadline(deadline)
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("waiting for %s: %w", action, err)
		}
		var env protocol.Envelope
		if err = json.Unmarshal(data, &env); err != nil {
			c.log.Debug("ignoring malformed message", "error", err)
			continue
		}
		c.log.Debug("receive", "action", env.Action, "size", len(data))
		if env.Action == action {
			return data, nil
		}
	}
}

// dump requests the background layer and writes it as PNG. height is the
// number of rows to wait for.
func (c *client) dump(name string, height int) error {
	if err := c.send(map[string]any{"action": "getPixels"}); err != nil {
		return err
	}

	rows := make([][]string, height)
	for !complete(rows) {
		data, err := c.wait(protocol.TagPixels)
		if err != nil {
			return err
		}
		var band protocol.Pixels
		if err = json.Unmarshal(data, &band); err != nil {
			return err
		}
		if band.LineStart < 0 || band.LineStart+len(band.Data) > len(rows) {
			return fmt.Errorf("rows %d-%d outside panel height %d", band.LineStart, band.LineEnd, height)
		}
		copy(rows[band.LineStart:], band.Data)
	}

	img, err := rowsImage(rows)
	if err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func complete(rows [][]string) bool {
	for _, row := range rows {
		if row == nil {
			return false
		}
	}
	return true
}

func printJSON(data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

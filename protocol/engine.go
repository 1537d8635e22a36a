package protocol

import "fmt"

// State of a reassembly Engine.
type State uint8

// Engine states.
const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Fragment is one piece of an inbound message as seen by the transport.
type Fragment struct {
	// Final is set on the last fragment of a message.
	Final bool

	// Offset of Payload within the message.
	Offset int

	// Total is the announced message length so far.
	Total int

	// Payload bytes.
	Payload []byte
}

// Engine turns a sequence of fragments into complete messages.
//
// An Engine belongs to a single connection and is not safe for concurrent use.
type Engine struct {
	buf      *Buffer
	state    State
	expected int
}

// NewEngine returns an idle engine for messages of at most size bytes.
func NewEngine(size int) *Engine {
	return &Engine{buf: NewBuffer(size)}
}

// State returns the current engine state.
func (e *Engine) State() State { return e.state }

// Len is the number of bytes accumulated for the in-flight message.
func (e *Engine) Len() int { return e.buf.Len() }

// Cap is the largest message the engine accepts.
func (e *Engine) Cap() int { return e.buf.Cap() }

// Reset discards any partially assembled message.
func (e *Engine) Reset() {
	e.buf.Reset()
	e.state = Idle
	e.expected = 0
}

// Feed consumes one fragment. It returns the complete message once the final
// fragment arrived, or nil while the message is pending. The returned slice
// may alias internal storage and is valid until the next call to Feed.
//
// On ErrFraming or ErrBufferOverflow the in-flight message is discarded, except
// for an out of range Total which leaves the engine untouched.
func (e *Engine) Feed(f Fragment) ([]byte, error) {
	if f.Total <= 0 || f.Total > e.buf.Cap() {
		return nil, fmt.Errorf("%w: message length %d not in 1..%d", ErrFraming, f.Total, e.buf.Cap())
	}

	if f.Offset == 0 {
		e.Reset()
		if f.Final && len(f.Payload) == f.Total {
			return f.Payload, nil
		}
		e.state = Accumulating
	} else if e.state != Accumulating {
		return nil, fmt.Errorf("%w: fragment at offset %d without a start", ErrFraming, f.Offset)
	} else if f.Offset != e.buf.Len() {
		want := e.buf.Len()
		e.Reset()
		return nil, fmt.Errorf("%w: fragment at offset %d, expected %d", ErrFraming, f.Offset, want)
	}

	e.expected = f.Total
	if err := e.buf.Append(f.Payload); err != nil {
		e.Reset()
		return nil, fmt.Errorf("%w: %d+%d bytes", err, f.Offset, len(f.Payload))
	}

	if !f.Final {
		return nil, nil
	}

	got, want := e.buf.Len(), e.expected
	if got < want {
		e.Reset()
		return nil, fmt.Errorf("%w: truncated message, %d of %d bytes", ErrFraming, got, want)
	}
	msg := e.buf.Bytes()
	e.state = Idle
	e.expected = 0
	e.buf.Reset()
	return msg, nil
}

package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func fragments(msg []byte, size int) []Fragment {
	var out []Fragment
	for off := 0; off < len(msg); off += size {
		end := off + size
		if end > len(msg) {
			end = len(msg)
		}
		out = append(out, Fragment{
			Final:   end == len(msg),
			Offset:  off,
			Total:   len(msg),
			Payload: msg[off:end],
		})
	}
	return out
}

func TestEngineSingleFragment(t *testing.T) {
	e := NewEngine(64)
	p := []byte(`{"action":"clear"}`)
	msg, err := e.Feed(Fragment{Final: true, Total: len(p), Payload: p})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(msg, p) {
		t.Errorf("expected %q, got %q", p, msg)
	}
	if e.Len() != 0 {
		t.Errorf("expected fast path to leave the buffer empty, got %d bytes", e.Len())
	}
	if v := e.State(); v != Idle {
		t.Errorf("expected state %s, got %s", Idle, v)
	}
}

func TestEngineMultiFragment(t *testing.T) {
	msg := bytes.Repeat([]byte("0123456789abcdef"), 700)
	for _, size := range []int{1, 7, 1024, 4000, len(msg) - 1} {
		t.Run("", func(it *testing.T) {
			e := NewEngine(48000)
			var got []byte
			frags := fragments(msg, size)
			for i, f := range frags {
				out, err := e.Feed(f)
				if err != nil {
					it.Fatalf("fragment %d: %v", i, err)
				}
				if i < len(frags)-1 {
					if out != nil {
						it.Fatalf("fragment %d: expected pending message", i)
					}
					if v := e.State(); v != Accumulating {
						it.Fatalf("expected state %s, got %s", Accumulating, v)
					}
				} else {
					got = append(got, out...)
				}
			}
			if !bytes.Equal(got, msg) {
				it.Errorf("expected %d bytes of reassembled message, got %d", len(msg), len(got))
			}
			if v := e.State(); v != Idle {
				it.Errorf("expected state %s, got %s", Idle, v)
			}
		})
	}
}

func TestEngineGrowingTotal(t *testing.T) {
	e := NewEngine(64)
	if _, err := e.Feed(Fragment{Offset: 0, Total: 5, Payload: []byte("hello")}); err != nil {
		t.Fatal(err)
	}
	msg, err := e.Feed(Fragment{Final: true, Offset: 5, Total: 11, Payload: []byte(" world")})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", msg)
	}
}

func TestEngineTotalOutOfRange(t *testing.T) {
	e := NewEngine(10000)
	if _, err := e.Feed(Fragment{Offset: 0, Total: 8000, Payload: []byte("abc")}); err != nil {
		t.Fatal(err)
	}
	for _, total := range []int{0, -1, 10001, 1 << 20} {
		_, err := e.Feed(Fragment{Final: true, Offset: 3, Total: total, Payload: []byte("d")})
		if !errors.Is(err, ErrFraming) {
			t.Errorf("total %d: expected ErrFraming, got %v", total, err)
		}
		if e.Len() != 3 || e.State() != Accumulating {
			t.Errorf("total %d: expected engine state to be untouched, got %d bytes %s", total, e.Len(), e.State())
		}
	}
}

func TestEngineOverflow(t *testing.T) {
	e := NewEngine(8)
	if _, err := e.Feed(Fragment{Offset: 0, Total: 8, Payload: []byte("12345")}); err != nil {
		t.Fatal(err)
	}
	_, err := e.Feed(Fragment{Offset: 5, Total: 8, Payload: []byte("6789")})
	if !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
	if e.Len() != 0 {
		t.Errorf("expected cursor 0, got %d", e.Len())
	}
	if v := e.State(); v != Idle {
		t.Errorf("expected state %s, got %s", Idle, v)
	}
}

func TestEngineOutOfSequence(t *testing.T) {
	t.Run("continuation without start", func(it *testing.T) {
		e := NewEngine(64)
		_, err := e.Feed(Fragment{Final: true, Offset: 4, Total: 8, Payload: []byte("abcd")})
		if !errors.Is(err, ErrFraming) {
			it.Errorf("expected ErrFraming, got %v", err)
		}
	})
	t.Run("gap", func(it *testing.T) {
		e := NewEngine(64)
		if _, err := e.Feed(Fragment{Offset: 0, Total: 12, Payload: []byte("abcd")}); err != nil {
			it.Fatal(err)
		}
		_, err := e.Feed(Fragment{Offset: 8, Total: 12, Payload: []byte("ijkl")})
		if !errors.Is(err, ErrFraming) {
			it.Errorf("expected ErrFraming, got %v", err)
		}
		if e.Len() != 0 || e.State() != Idle {
			it.Errorf("expected reset, got %d bytes %s", e.Len(), e.State())
		}
	})
	t.Run("truncated", func(it *testing.T) {
		e := NewEngine(64)
		if _, err := e.Feed(Fragment{Offset: 0, Total: 12, Payload: []byte("abcd")}); err != nil {
			it.Fatal(err)
		}
		_, err := e.Feed(Fragment{Final: true, Offset: 4, Total: 12, Payload: []byte("efgh")})
		if !errors.Is(err, ErrFraming) {
			it.Errorf("expected ErrFraming, got %v", err)
		}
		if e.Len() != 0 || e.State() != Idle {
			it.Errorf("expected reset, got %d bytes %s", e.Len(), e.State())
		}
	})
}

func TestEngineRestart(t *testing.T) {
	e := NewEngine(48000)
	first := bytes.Repeat([]byte("a"), 4000)
	if _, err := e.Feed(Fragment{Offset: 0, Total: 10000, Payload: first}); err != nil {
		t.Fatal(err)
	}

	second := []byte(`{"action":"getState","pad":"` + string(bytes.Repeat([]byte("b"), 3000)) + `"}`)
	var got []byte
	for _, f := range fragments(second, 1024) {
		out, err := e.Feed(f)
		if err != nil {
			t.Fatal(err)
		}
		if out != nil {
			got = append([]byte(nil), out...)
		}
	}
	if !bytes.Equal(got, second) {
		t.Errorf("expected only the second message, got %d bytes", len(got))
	}
}

func TestEngineFastPathDiscardsPending(t *testing.T) {
	e := NewEngine(64)
	if _, err := e.Feed(Fragment{Offset: 0, Total: 20, Payload: []byte("partial")}); err != nil {
		t.Fatal(err)
	}
	p := []byte("whole")
	msg, err := e.Feed(Fragment{Final: true, Offset: 0, Total: len(p), Payload: p})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "whole" {
		t.Errorf("expected %q, got %q", "whole", msg)
	}
	if e.Len() != 0 || e.State() != Idle {
		t.Errorf("expected reset, got %d bytes %s", e.Len(), e.State())
	}
}

func TestEngineReset(t *testing.T) {
	e := NewEngine(64)
	if _, err := e.Feed(Fragment{Offset: 0, Total: 20, Payload: []byte("partial")}); err != nil {
		t.Fatal(err)
	}
	e.Reset()
	if _, err := e.Feed(Fragment{Final: true, Offset: 7, Total: 20, Payload: []byte("rest")}); !errors.Is(err, ErrFraming) {
		t.Errorf("expected ErrFraming after reset, got %v", err)
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(4)
	if err := b.Append([]byte("ab")); err != nil {
		t.Fatal(err)
	}
	if err := b.Append([]byte("cde")); !errors.Is(err, ErrBufferOverflow) {
		t.Errorf("expected ErrBufferOverflow, got %v", err)
	}
	if v := string(b.Bytes()); v != "ab" {
		t.Errorf("expected rejected append to leave %q, got %q", "ab", v)
	}
	if err := b.Append([]byte("cd")); err != nil {
		t.Fatal(err)
	}
	if b.Len() != b.Cap() {
		t.Errorf("expected full buffer, got %d of %d", b.Len(), b.Cap())
	}
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("expected empty buffer, got %d", b.Len())
	}
}

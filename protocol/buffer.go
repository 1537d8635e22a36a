package protocol

// Buffer is a fixed capacity byte buffer with a write cursor.
type Buffer struct {
	data   []byte
	cursor int
}

// NewBuffer returns an empty buffer that holds at most size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// Cap is the buffer capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Len is the number of bytes written since the last Reset.
func (b *Buffer) Len() int { return b.cursor }

// Append copies p after the cursor. If p does not fit nothing is written and
// ErrBufferOverflow is returned.
func (b *Buffer) Append(p []byte) error {
	if len(p) > len(b.data)-b.cursor {
		return ErrBufferOverflow
	}
	b.cursor += copy(b.data[b.cursor:], p)
	return nil
}

// Bytes returns the written bytes. The slice aliases the buffer and is only
// valid until the next Append or Reset.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.cursor]
}

// Reset moves the cursor back to 0.
func (b *Buffer) Reset() {
	b.cursor = 0
}

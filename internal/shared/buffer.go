package shared

import "io"

// DefaultRecvSize is the number of bytes a single receive may return.
const DefaultRecvSize = 255

// RecvBuffer is a fixed-capacity receive buffer owned by exactly one connection.
// It is zero-filled before every read so a short read never exposes stale bytes.
type RecvBuffer struct {
	b []byte
	n int
}

// NewRecvBuffer creates a RecvBuffer with room for size bytes.
func NewRecvBuffer(size int) *RecvBuffer {
	if size <= 0 {
		size = DefaultRecvSize
	}
	return &RecvBuffer{b: make([]byte, size)}
}

// Cap returns the buffer capacity.
func (b *RecvBuffer) Cap() int {
	return len(b.b)
}

// Reset zero-fills the buffer and forgets the last read length.
func (b *RecvBuffer) Reset() {
	clear(b.b)
	b.n = 0
}

// ReadOnce clears the buffer and performs exactly one Read of at most limit bytes.
// limit <= 0 or larger than Cap means Cap.
func (b *RecvBuffer) ReadOnce(r io.Reader, limit int) (int, error) {
	b.Reset()
	if limit <= 0 || limit > len(b.b) {
		limit = len(b.b)
	}
	n, err := r.Read(b.b[:limit])
	b.n = n
	return n, err
}

// Bytes returns a copy of the bytes from the last read.
// The received length is authoritative; no terminator is assumed.
func (b *RecvBuffer) Bytes() []byte {
	out := make([]byte, b.n)
	copy(out, b.b[:b.n])
	return out
}

// Len returns the length of the last read.
func (b *RecvBuffer) Len() int {
	return b.n
}

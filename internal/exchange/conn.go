package exchange

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"replyserver/internal/shared"
)

// Connection is one accepted client socket with its private receive buffer.
type Connection struct {
	ID   string
	Peer net.Addr

	conn    net.Conn
	buf     *shared.RecvBuffer
	timeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func newConnection(conn net.Conn, id string, opts ListenOptions) *Connection {
	return &Connection{
		ID:      id,
		Peer:    conn.RemoteAddr(),
		conn:    shared.NewCountedConn(conn, opts.Received, opts.Sent),
		buf:     shared.NewRecvBuffer(opts.BufferSize),
		timeout: opts.IOTimeout,
	}
}

func (c *Connection) peer() string {
	if c.Peer == nil {
		return ""
	}
	return c.Peer.String()
}

// Receive performs a single read of at most maxLen bytes. maxLen is capped at
// the buffer capacity. A peer that closes before sending yields an empty,
// non-nil slice and a nil error.
func (c *Connection) Receive(maxLen int) ([]byte, error) {
	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, newError(KindRead, c.peer(), err)
		}
	}
	_, err := c.buf.ReadOnce(c.conn, maxLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, newError(KindRead, c.peer(), err)
	}
	return c.buf.Bytes(), nil
}

// Reply writes all of payload, looping over partial writes.
// It returns the number of bytes written before any error.
func (c *Connection) Reply(payload []byte) (int, error) {
	sent := 0
	for sent < len(payload) {
		if c.timeout > 0 {
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
				return sent, newError(KindWrite, c.peer(), err)
			}
		}
		n, err := c.conn.Write(payload[sent:])
		sent += n
		if err != nil {
			return sent, newError(KindWrite, c.peer(), err)
		}
		if n == 0 {
			return sent, newError(KindWrite, c.peer(), io.ErrShortWrite)
		}
	}
	return sent, nil
}

// Close releases the socket. Only the first call has an effect.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

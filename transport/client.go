package transport

import (
	"net"
	"time"

	"github.com/indigo-web/flint/internal/timer"
)

// Client is a byte stream of a single connection. Read returns the next available chunk,
// which may be empty when nothing is pending yet. io.EOF means the peer closed the stream.
type Client interface {
	Read() ([]byte, error)
	// Pushback returns the bytes to the stream, so the next Read starts with them.
	Pushback([]byte)
	Write([]byte) (int, error)
	// CloseWrite shuts down the writing side of the stream, signalling the end of
	// the response to the peer.
	CloseWrite() error
	Conn() net.Conn
	Remote() net.Addr
	Close() error
}

// NewClient wraps the connection. Chunks returned by Read point into buff and stay valid
// only until the next Read.
func NewClient(conn net.Conn, timeout time.Duration, buff []byte) Client {
	return &client{
		conn:    conn,
		buff:    buff,
		timeout: timeout,
	}
}

type client struct {
	conn     net.Conn
	buff     []byte
	returned []byte
	timeout  time.Duration
}

func (c *client) Read() ([]byte, error) {
	if len(c.returned) > 0 {
		chunk := c.returned
		c.returned = nil
		return chunk, nil
	}

	// every read prolongs the idle deadline
	if err := c.conn.SetReadDeadline(timer.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	n, err := c.conn.Read(c.buff)
	return c.buff[:n], err
}

func (c *client) Pushback(chunk []byte) {
	switch {
	case len(chunk) == 0:
	case len(c.returned) == 0:
		c.returned = chunk
	default:
		c.returned = append(chunk[:len(chunk):len(chunk)], c.returned...)
	}
}

func (c *client) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

type halfCloser interface {
	CloseWrite() error
}

// CloseWrite falls back to closing the connection completely, if it can't be half-closed.
func (c *client) CloseWrite() error {
	if hc, ok := c.conn.(halfCloser); ok {
		return hc.CloseWrite()
	}

	return c.conn.Close()
}

func (c *client) Conn() net.Conn {
	return c.conn
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *client) Close() error {
	return c.conn.Close()
}

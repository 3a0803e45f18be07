package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/flint/transport"
)

var _ transport.Client = new(Client)

// Client replays the chunks it was initialised with, one per read, and returns io.EOF
// afterward, unless set to loop. It also tracks all the written data, making it thereby
// a universal mock suitable for most of the tests.
//
// Empty chunks are returned as is, so they emulate a stream having nothing pending yet.
type Client struct {
	closed      bool
	writeClosed bool
	loop        bool
	pointer     int
	tmp         []byte
	written     []byte
	data        [][]byte
	remote      net.Addr
}

func NewMockClient(data ...[]byte) *Client {
	return &Client{
		data: data,
	}
}

func (c *Client) Read() (data []byte, err error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.tmp) > 0 {
		data, c.tmp = c.tmp, nil

		return data, nil
	}

	if c.pointer >= len(c.data) {
		if !c.loop || len(c.data) == 0 {
			return nil, io.EOF
		}

		c.pointer = 0
	}

	piece := c.data[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *Client) Pushback(takeback []byte) {
	if len(takeback) > 0 {
		c.tmp = append(takeback[:len(takeback):len(takeback)], c.tmp...)
	}
}

func (c *Client) Write(p []byte) (int, error) {
	if c.writeClosed || c.closed {
		return 0, net.ErrClosed
	}

	c.written = append(c.written, p...)
	return len(p), nil
}

func (c *Client) CloseWrite() error {
	c.writeClosed = true
	return nil
}

func (c *Client) Conn() net.Conn {
	return new(Conn)
}

func (c *Client) Remote() net.Addr {
	return c.remote
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

// LoopReads makes the client start over again instead of returning io.EOF.
func (c *Client) LoopReads() *Client {
	c.loop = true
	return c
}

// WithRemote sets the address returned by Remote.
func (c *Client) WithRemote(addr net.Addr) *Client {
	c.remote = addr
	return c
}

// Written returns everything written into the client so far.
func (c *Client) Written() string {
	return string(c.written)
}

// WriteClosed reports whether CloseWrite was called.
func (c *Client) WriteClosed() bool {
	return c.writeClosed
}

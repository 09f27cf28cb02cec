// Package transporttest provides a scripted in-memory transport.Transport
// for exercising the buffered writer and the HTTP exchange without sockets.
package transporttest

import (
	"bytes"

	"github.com/imor/http-efi/errors"
	"github.com/imor/http-efi/transport"
)

var _ transport.Transport = &Conn{}

// Conn records everything written to it and serves Response to readers.
//
// Write behaviour is driven by WriteScript: the k-th Write call accepts at
// most WriteScript[k] bytes; 0 reports a zero-byte write and a negative entry
// fails the call with WriteErr. Calls past the end of the script accept up to
// MaxWrite bytes (all of them when MaxWrite is 0).
type Conn struct {
	WriteScript []int
	MaxWrite    int
	WriteErr    error

	Response  []byte
	ReadChunk int
	// ReadErr replaces the end-of-stream error once Response is drained.
	ReadErr error
	// ZeroReadEOF reports end-of-stream as (0, nil) instead of a
	// ConnectionClosed transport error.
	ZeroReadEOF bool

	Host string
	Port uint16

	written    bytes.Buffer
	writeCalls int
	readCalls  int
	readPos    int
	closed     bool
}

// NewConn returns a Conn serving response.
func NewConn(response string) *Conn {
	return &Conn{Response: []byte(response)}
}

func (c *Conn) Connect(host string, port uint16) error {
	c.Host, c.Port = host, port
	c.closed = false
	return nil
}

func (c *Conn) Write(buf []byte) (int, error) {
	if c.closed {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed", nil)
	}

	call := c.writeCalls
	c.writeCalls++

	limit := len(buf)
	switch {
	case call < len(c.WriteScript):
		step := c.WriteScript[call]
		if step < 0 {
			err := c.WriteErr
			if err == nil {
				err = errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "scripted write failure", nil)
			}
			return 0, err
		}
		limit = min(limit, step)
	case c.MaxWrite > 0:
		limit = min(limit, c.MaxWrite)
	}

	c.written.Write(buf[:limit])
	return limit, nil
}

func (c *Conn) Read(buf []byte) (int, error) {
	c.readCalls++

	if c.readPos >= len(c.Response) {
		if c.ReadErr != nil {
			return 0, c.ReadErr
		}
		if c.ZeroReadEOF {
			return 0, nil
		}
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", nil)
	}

	end := len(c.Response)
	if c.ReadChunk > 0 {
		end = min(end, c.readPos+c.ReadChunk)
	}

	n := copy(buf, c.Response[c.readPos:end])
	c.readPos += n
	return n, nil
}

func (c *Conn) Close() error {
	c.closed = true
	return nil
}

// Written returns every byte accepted by Write so far.
func (c *Conn) Written() []byte {
	return c.written.Bytes()
}

// WriteCalls returns how many times Write was called.
func (c *Conn) WriteCalls() int {
	return c.writeCalls
}

// ReadCalls returns how many times Read was called.
func (c *Conn) ReadCalls() int {
	return c.readCalls
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	return c.closed
}

// Rewind makes the Conn serve response again and clears the write log.
func (c *Conn) Rewind(response string) {
	c.Response = []byte(response)
	c.readPos = 0
	c.written.Reset()
	c.writeCalls = 0
	c.readCalls = 0
}

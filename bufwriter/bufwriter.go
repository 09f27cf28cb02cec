// Package bufwriter coalesces small writes into fixed-size transport writes.
//
// Reads are passed straight through to the underlying stream and never see
// buffered bytes, so callers must Flush before reading. The HTTP exchange
// follows a strict write-then-read order and satisfies this.
package bufwriter

import (
	"io"

	"github.com/indigo-web/utils/uf"

	"github.com/imor/http-efi/errors"
)

// DefaultSize is the buffer capacity used when New is given a non-positive size.
const DefaultSize = 1024

// Writer buffers outgoing bytes for an io.ReadWriter.
//
// Bytes in buf[:n] are buffered but not yet sent; 0 <= n <= len(buf).
type Writer struct {
	inner io.ReadWriter
	buf   []byte
	n     int
}

// New returns a Writer with a buffer of size bytes allocated once.
func New(inner io.ReadWriter, size int) *Writer {
	if size <= 0 {
		size = DefaultSize
	}

	return &Writer{
		inner: inner,
		buf:   make([]byte, size),
	}
}

// Write copies p into the buffer, flushing whenever the buffer is full.
// It returns len(p) unless a flush fails, in which case the error is
// returned together with the number of bytes placed in the buffer.
func (w *Writer) Write(p []byte) (int, error) {
	placed := 0
	for placed < len(p) {
		if w.Available() == 0 {
			if err := w.Flush(); err != nil {
				return placed, err
			}
		}

		n := copy(w.buf[w.n:], p[placed:])
		w.n += n
		placed += n
	}

	return placed, nil
}

// WriteString is Write for strings, without converting through a new slice.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write(uf.S2B(s))
}

// Flush sends every buffered byte to the underlying stream.
//
// A write reporting zero bytes and no error means the stream no longer
// accepts data and fails with a device error. On any failure the bytes the
// stream already took are dropped from the buffer and the rest is kept, so
// a later Flush resumes exactly where this one stopped.
func (w *Writer) Flush() error {
	written := 0
	for written < w.n {
		n, err := w.inner.Write(w.buf[written:w.n])
		written += n
		switch {
		case err != nil:
			w.consume(written)
			return err
		case n == 0:
			w.consume(written)
			return errors.NewDeviceError("transport accepted zero bytes")
		}
	}

	w.n = 0
	return nil
}

func (w *Writer) consume(sent int) {
	if sent > w.n {
		sent = w.n
	}
	copy(w.buf, w.buf[sent:w.n])
	w.n -= sent
}

// Read reads directly from the underlying stream. Buffered bytes are not
// flushed first.
func (w *Writer) Read(p []byte) (int, error) {
	return w.inner.Read(p)
}

// Buffered returns the number of bytes waiting to be flushed.
func (w *Writer) Buffered() int {
	return w.n
}

// Available returns how many bytes fit before the next flush.
func (w *Writer) Available() int {
	return len(w.buf) - w.n
}

// Size returns the buffer capacity.
func (w *Writer) Size() int {
	return len(w.buf)
}

// Reset discards any buffered bytes and switches to inner.
func (w *Writer) Reset(inner io.ReadWriter) {
	w.inner = inner
	w.n = 0
}

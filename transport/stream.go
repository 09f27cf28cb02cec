package transport

import (
	stderrors "errors"
	"io"
	"net"
	"syscall"

	"github.com/imor/http-efi/errors"
)

// stream is the Write/Read/Close half shared by the net.Conn backed
// transports. A zero stream is disconnected.
type stream struct {
	conn net.Conn
}

func (s *stream) Write(buf []byte) (int, error) {
	if s.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := s.conn.Write(buf)
	if err != nil {
		return n, classifyWriteError(err)
	}

	return n, nil
}

func (s *stream) Read(buf []byte) (int, error) {
	if s.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	n, err := s.conn.Read(buf)
	if err != nil {
		return n, classifyReadError(n, buf, err)
	}

	return n, nil
}

// Close is idempotent.
func (s *stream) Close() error {
	conn := s.conn
	if conn == nil {
		return nil
	}
	s.conn = nil

	if err := conn.Close(); err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close socket", err)
	}

	return nil
}

func classifyWriteError(err error) error {
	if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed during write", err)
	}
	return errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
}

func classifyReadError(n int, buf []byte, err error) error {
	if stderrors.Is(err, io.EOF) || (n == 0 && len(buf) > 0 && stderrors.Is(err, syscall.ECONNRESET)) {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", err)
	}
	return errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
}

//go:build linux

package transport

import (
	"syscall"

	"github.com/iceber/iouring-go"

	"github.com/imor/http-efi/errors"
)

const uringQueueDepth = 32

// UringTransport is a TCP Transport whose connect, send and recv go through
// an iouring-go ring. Each call submits one request and blocks on its
// result.
type UringTransport struct {
	ring   *iouring.IOURing
	fd     int
	closed bool
}

func NewUringTransport() (*UringTransport, error) {
	ring, err := iouring.New(uringQueueDepth)
	if err != nil {
		return nil, errors.NewTransportError(errors.TransportErrorIoUringInit, "failed to initialize io_uring", err)
	}

	return &UringTransport{ring: ring, fd: -1}, nil
}

func (t *UringTransport) Connect(host string, port uint16) error {
	if t.fd >= 0 {
		return errors.NewTransportError(errors.TransportErrorSocketConnectFailure, "already connected", nil)
	}

	fd, sa, addr, err := openSocket(host, port)
	if err != nil {
		return err
	}

	req, err := iouring.Connect(fd, sa)
	if err != nil {
		syscall.Close(fd)
		return connectFailure(addr, err)
	}

	result, err := t.submit(req)
	if err == nil {
		err = result.Err()
	}
	if err != nil {
		syscall.Close(fd)
		if errors.TypeOf(err) == errors.ErrorTransport {
			return err
		}
		return connectFailure(addr, err)
	}

	t.fd, t.closed = fd, false
	return nil
}

// Write may return a short count.
func (t *UringTransport) Write(buf []byte) (int, error) {
	if err := t.check(errors.TransportErrorSocketWriteFailure); err != nil {
		return 0, err
	}

	n, err := t.do(iouring.Send(t.fd, buf, 0))
	if err != nil {
		if errors.TypeOf(err) == errors.ErrorTransport {
			return 0, err
		}
		return 0, classifyWriteError(err)
	}

	return n, nil
}

func (t *UringTransport) Read(buf []byte) (int, error) {
	if err := t.check(errors.TransportErrorSocketReadFailure); err != nil {
		return 0, err
	}

	n, err := t.do(iouring.Recv(t.fd, buf, 0))
	switch {
	case errors.TypeOf(err) == errors.ErrorTransport:
		return 0, err
	case err != nil:
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
	case n == 0 && len(buf) > 0:
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", nil)
	}

	return n, nil
}

// submit submits one request and waits for its completion. Submission
// failures come back as transport errors.
func (t *UringTransport) submit(req iouring.PrepRequest) (iouring.Result, error) {
	ch := make(chan iouring.Result, 1)
	if _, err := t.ring.SubmitRequest(req, ch); err != nil {
		return nil, errors.NewTransportError(errors.TransportErrorIoUringSubmit, "failed to submit request", err)
	}

	return <-ch, nil
}

// do is submit for send and recv, whose completions carry a byte count.
// Completion failures come back as the raw errno.
func (t *UringTransport) do(req iouring.PrepRequest) (int, error) {
	result, err := t.submit(req)
	if err != nil {
		return 0, err
	}

	return result.ReturnInt()
}

// Close closes the socket. The ring stays usable until Destroy.
func (t *UringTransport) Close() error {
	if t.fd < 0 || t.closed {
		return nil
	}

	fd := t.fd
	t.fd, t.closed = -1, true
	if err := syscall.Close(fd); err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close socket", err)
	}

	return nil
}

// Destroy closes the socket and releases the ring.
func (t *UringTransport) Destroy() {
	t.Close()
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}
}

func (t *UringTransport) check(code errors.TransportError) error {
	if t.closed {
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed", nil)
	}
	if t.fd < 0 {
		return errors.NewTransportError(code, "not connected", nil)
	}
	return nil
}

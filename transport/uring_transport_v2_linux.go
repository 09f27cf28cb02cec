//go:build linux

package transport

import (
	"os"
	"syscall"

	"github.com/godzie44/go-uring/uring"

	"github.com/imor/http-efi/errors"
)

// UringTransportV2 is a TCP Transport whose reads and writes are queued on a
// go-uring ring, one entry per call.
type UringTransportV2 struct {
	ring *uring.Ring
	fd   int
	file *os.File
}

func NewUringTransportV2() (*UringTransportV2, error) {
	ring, err := uring.New(uringQueueDepth)
	if err != nil {
		return nil, errors.NewTransportError(errors.TransportErrorIoUringInit, "failed to initialize io_uring", err)
	}

	return &UringTransportV2{ring: ring, fd: -1}, nil
}

// Connect is a plain blocking connect; the ring only carries reads and
// writes.
func (t *UringTransportV2) Connect(host string, port uint16) error {
	if t.fd >= 0 {
		return errors.NewTransportError(errors.TransportErrorSocketConnectFailure, "already connected", nil)
	}

	fd, sa, addr, err := openSocket(host, port)
	if err != nil {
		return err
	}

	if err = syscall.Connect(fd, sa); err != nil {
		syscall.Close(fd)
		return connectFailure(addr, err)
	}

	t.fd = fd
	t.file = os.NewFile(uintptr(fd), addr)
	return nil
}

// Write may return a short count.
func (t *UringTransportV2) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	if err := t.ring.QueueSQE(uring.Write(t.file.Fd(), buf, 0), 0, 0); err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorIoUringSubmit, "failed to queue write request", err)
	}

	n, err := t.submitAndWait()
	if err != nil {
		return 0, classifyWriteError(err)
	}

	return n, nil
}

func (t *UringTransportV2) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	if err := t.ring.QueueSQE(uring.Read(t.file.Fd(), buf, 0), 0, 0); err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorIoUringSubmit, "failed to queue read request", err)
	}

	n, err := t.submitAndWait()
	if err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", nil)
	}

	return n, nil
}

// submitAndWait submits the queued entry and waits for its completion event.
func (t *UringTransportV2) submitAndWait() (int, error) {
	if _, err := t.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorIoUringSubmit, "failed to submit request", err)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, err
	}

	defer t.ring.SeenCQE(cqe)
	if err := cqe.Error(); err != nil {
		return 0, err
	}

	return int(cqe.Res), nil
}

func (t *UringTransportV2) Close() error {
	if t.fd < 0 {
		return nil
	}

	var err error
	if t.file != nil {
		err = t.file.Close()
		t.file = nil
	}
	t.fd = -1

	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close socket", err)
	}

	return nil
}

// Destroy closes the socket and releases the ring.
func (t *UringTransportV2) Destroy() {
	t.Close()
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}
}

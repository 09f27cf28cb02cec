//go:build !linux

package transport

import "github.com/imor/http-efi/errors"

// UringTransport is only available on Linux.
type UringTransport struct{ unavailable }

// UringTransportV2 is only available on Linux.
type UringTransportV2 struct{ unavailable }

func NewUringTransport() (*UringTransport, error) {
	return nil, errUnavailable()
}

func NewUringTransportV2() (*UringTransportV2, error) {
	return nil, errUnavailable()
}

type unavailable struct{}

func (unavailable) Connect(string, uint16) error { return errUnavailable() }
func (unavailable) Write([]byte) (int, error)    { return 0, errUnavailable() }
func (unavailable) Read([]byte) (int, error)     { return 0, errUnavailable() }
func (unavailable) Close() error                 { return nil }
func (unavailable) Destroy()                     {}

func errUnavailable() error {
	return errors.NewTransportError(errors.TransportErrorIoUringInit, "io_uring requires linux", nil)
}

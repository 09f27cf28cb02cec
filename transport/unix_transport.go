package transport

import (
	"net"

	"github.com/imor/http-efi/errors"
)

// UnixTransport is a Transport over a Unix domain stream socket. The host
// passed to Connect is the socket path; the port is unused.
type UnixTransport struct {
	stream
}

func NewUnixTransport() *UnixTransport {
	return &UnixTransport{}
}

func (t *UnixTransport) Connect(path string, _ uint16) error {
	conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketConnectFailure, "failed to connect to unix socket "+path, err)
	}

	t.conn = conn
	return nil
}

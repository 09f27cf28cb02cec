package transport

import (
	stderrors "errors"
	"net"
	"strconv"

	"github.com/imor/http-efi/errors"
)

// TcpTransport is a Transport over a TCP connection.
type TcpTransport struct {
	stream
}

func NewTcpTransport() *TcpTransport {
	return &TcpTransport{}
}

// Connect dials host:port with Nagle disabled, since every request leaves
// the buffered writer as a few large writes.
func (t *TcpTransport) Connect(host string, port uint16) error {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		code, what := errors.TransportErrorSocketConnectFailure, "connect to"
		var dnsErr *net.DNSError
		if stderrors.As(err, &dnsErr) {
			code, what = errors.TransportErrorDnsFailure, "resolve"
		}
		return errors.NewTransportError(code, "failed to "+what+" "+addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err = tcpConn.SetNoDelay(true); err != nil {
			conn.Close()
			return errors.NewTransportError(errors.TransportErrorSocketCreateFailure, "failed to set TCP_NODELAY", err)
		}
	}

	t.conn = conn
	return nil
}

package transport

import (
	"fmt"
	"strings"

	"github.com/imor/http-efi/errors"
)

// Transport defines the interface for network I/O operations.
// Implementations include TCP and Unix domain sockets, with io_uring-backed
// TCP variants on Linux.
//
// A Transport is a reliable, ordered, blocking byte stream. Read reports
// end-of-stream as a ConnectionClosed transport error.
type Transport interface {
	// Connect establishes a connection to the specified host and port.
	// For Unix sockets, the host parameter is the socket path and port is ignored.
	Connect(host string, port uint16) error

	// Write sends data to the connected peer.
	// Returns the number of bytes written or an error.
	Write(buf []byte) (int, error)

	// Read receives data from the connected peer.
	// Returns the number of bytes read or an error.
	Read(buf []byte) (int, error)

	// Close closes the connection.
	Close() error
}

// Kind selects a Transport implementation.
type Kind int

const (
	KindTCP Kind = iota
	KindUnix
	KindIoUring
	KindIoUringV2
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindUnix:
		return "unix"
	case KindIoUring:
		return "uring"
	case KindIoUringV2:
		return "uring2"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tcp":
		return KindTCP, nil
	case "unix":
		return KindUnix, nil
	case "uring", "io_uring":
		return KindIoUring, nil
	case "uring2", "io_uring2":
		return KindIoUringV2, nil
	default:
		return 0, errors.NewInvalidArgumentError(fmt.Sprintf("unknown transport %q", s))
	}
}

// New returns an unconnected Transport of the given kind.
func New(kind Kind) (Transport, error) {
	switch kind {
	case KindTCP:
		return NewTcpTransport(), nil
	case KindUnix:
		return NewUnixTransport(), nil
	case KindIoUring:
		t, err := NewUringTransport()
		if err != nil {
			return nil, err
		}
		return t, nil
	case KindIoUringV2:
		t, err := NewUringTransportV2()
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("unknown transport %s", kind))
	}
}

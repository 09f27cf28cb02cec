//go:build linux

package transport

import (
	"net"
	"strconv"
	"syscall"

	"github.com/imor/http-efi/errors"
)

// openSocket resolves host:port and creates an unconnected TCP socket of the
// matching family with Nagle disabled. The caller owns fd and connects it
// to sa.
func openSocket(host string, port uint16) (fd int, sa syscall.Sockaddr, addr string, err error) {
	addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, nil, addr, errors.NewTransportError(errors.TransportErrorDnsFailure, "failed to resolve "+addr, err)
	}

	family := syscall.AF_INET6
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		family = syscall.AF_INET
		sa4 := &syscall.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		sa6 := &syscall.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP.To16())
		sa = sa6
	}

	fd, err = syscall.Socket(family, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, nil, addr, errors.NewTransportError(errors.TransportErrorSocketCreateFailure, "failed to create socket", err)
	}

	if err = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1); err != nil {
		syscall.Close(fd)
		return -1, nil, addr, errors.NewTransportError(errors.TransportErrorSocketCreateFailure, "failed to set TCP_NODELAY", err)
	}

	return fd, sa, addr, nil
}

func connectFailure(addr string, err error) error {
	return errors.NewTransportError(errors.TransportErrorSocketConnectFailure, "failed to connect to "+addr, err)
}

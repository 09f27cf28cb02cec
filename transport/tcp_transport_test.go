package transport

import (
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imor/http-efi/errors"
)

// peer accepts a single connection on listener, hands it to handle and
// closes it afterwards. The returned func waits for that to finish.
func peer(t *testing.T, listener net.Listener, handle func(net.Conn)) func() {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		handle(conn)
		conn.Close()
	}()

	return func() {
		listener.Close()
		<-done
	}
}

func tcpPeer(t *testing.T, handle func(net.Conn)) (string, uint16, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), uint16(addr.Port), peer(t, listener, handle)
}

func freePort(t *testing.T) uint16 {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return uint16(listener.Addr().(*net.TCPAddr).Port)
}

func requireTransportErr(t *testing.T, err error, want errors.TransportError) {
	t.Helper()

	require.Error(t, err)
	httpErr, ok := err.(*errors.HttpError)
	require.Truef(t, ok, "got %T", err)
	require.Equal(t, errors.ErrorTransport, httpErr.Type)
	require.Equal(t, want, httpErr.TransportErr)
}

func TestTcpTransport_Connect(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		host, port, wait := tcpPeer(t, func(net.Conn) {})
		defer wait()

		tr := NewTcpTransport()
		require.NoError(t, tr.Connect(host, port))
		require.NotNil(t, tr.conn)
		require.NoError(t, tr.Close())
	})

	t.Run("unresolvable", func(t *testing.T) {
		err := NewTcpTransport().Connect("no-such-host.invalid", 80)
		requireTransportErr(t, err, errors.TransportErrorDnsFailure)
	})

	t.Run("refused", func(t *testing.T) {
		err := NewTcpTransport().Connect("127.0.0.1", freePort(t))
		requireTransportErr(t, err, errors.TransportErrorSocketConnectFailure)
	})
}

func TestTcpTransport_Exchange(t *testing.T) {
	got := make(chan string, 1)
	host, port, wait := tcpPeer(t, func(conn net.Conn) {
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		got <- string(buf[:n])
		conn.Write([]byte("pong"))
	})
	defer wait()

	tr := NewTcpTransport()
	require.NoError(t, tr.Connect(host, port))
	defer tr.Close()

	n, err := tr.Write([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	select {
	case msg := <-got:
		require.Equal(t, "ping", msg)
	case <-time.After(time.Second):
		t.Fatal("peer did not receive the write")
	}

	buf := make([]byte, 64)
	n, err = tr.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf[:n]))

	_, err = tr.Read(buf)
	requireTransportErr(t, err, errors.TransportErrorConnectionClosed)
	require.True(t, errors.IsConnectionClosed(err))
}

func TestTcpTransport_WriteAfterReset(t *testing.T) {
	host, port, wait := tcpPeer(t, func(conn net.Conn) {
		// wait for the client's first byte so the reset cannot race Dial
		if _, err := conn.Read(make([]byte, 1)); err != nil {
			return
		}

		// SO_LINGER 0 makes the close send RST.
		raw, err := conn.(*net.TCPConn).SyscallConn()
		if err != nil {
			return
		}
		raw.Control(func(fd uintptr) {
			syscall.SetsockoptLinger(int(fd), syscall.SOL_SOCKET, syscall.SO_LINGER, &syscall.Linger{Onoff: 1})
		})
	})
	defer wait()

	tr := NewTcpTransport()
	require.NoError(t, tr.Connect(host, port))
	defer tr.Close()

	_, err := tr.Write([]byte("x"))
	require.NoError(t, err)

	wait()
	time.Sleep(50 * time.Millisecond)

	_, err = tr.Write([]byte("after reset"))
	requireTransportErr(t, err, errors.TransportErrorConnectionClosed)
}

func TestTcpTransport_Disconnected(t *testing.T) {
	tr := NewTcpTransport()

	_, err := tr.Write([]byte("x"))
	requireTransportErr(t, err, errors.TransportErrorSocketWriteFailure)

	_, err = tr.Read(make([]byte, 8))
	requireTransportErr(t, err, errors.TransportErrorSocketReadFailure)

	assert.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"":          KindTCP,
		"tcp":       KindTCP,
		"UNIX":      KindUnix,
		"uring":     KindIoUring,
		"io_uring2": KindIoUringV2,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, must(ParseKind(got.String())))
	}

	_, err := ParseKind("sctp")
	require.True(t, errors.IsInvalidArgument(err))
}

func TestNew(t *testing.T) {
	tr, err := New(KindTCP)
	require.NoError(t, err)
	require.IsType(t, &TcpTransport{}, tr)

	tr, err = New(KindUnix)
	require.NoError(t, err)
	require.IsType(t, &UnixTransport{}, tr)

	_, err = New(Kind(42))
	require.True(t, errors.IsInvalidArgument(err))
}

func must(k Kind, err error) Kind {
	if err != nil {
		panic(err)
	}
	return k
}

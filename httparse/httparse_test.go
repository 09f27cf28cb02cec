package httparse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/stretchr/testify/require"
)

func newSlots(n int) []Header {
	slots := make([]Header, n)
	for i := range slots {
		slots[i] = EmptyHeader
	}

	return slots
}

func TestParse(t *testing.T) {
	t.Run("simple response", func(t *testing.T) {
		data := "HTTP/1.1 200 OK\r\n\r\n"
		resp := NewResponse(newSlots(4))
		status, err := resp.Parse([]byte(data))
		require.NoError(t, err)
		require.True(t, status.Complete)
		require.Equal(t, len(data), status.Len)
		require.Equal(t, uint8(1), resp.Version)
		require.True(t, resp.HasCode)
		require.Equal(t, uint16(200), resp.Code)
		require.Equal(t, "OK", resp.Reason)
		require.Empty(t, resp.Headers)
	})

	t.Run("headers and body", func(t *testing.T) {
		data := "HTTP/1.1 200 OK\r\nX-A:1\r\nHello:  world \r\n\r\nHELLO"
		resp := NewResponse(newSlots(4))
		status, err := resp.Parse([]byte(data))
		require.NoError(t, err)
		require.True(t, status.Complete)
		require.Equal(t, "HELLO", data[status.Len:])
		require.Len(t, resp.Headers, 2)
		require.Equal(t, "X-A", resp.Headers[0].Name)
		require.Equal(t, "1", string(resp.Headers[0].Value))
		require.Equal(t, "Hello", resp.Headers[1].Name)
		require.Equal(t, "world", string(resp.Headers[1].Value))
	})

	t.Run("bare LF line endings", func(t *testing.T) {
		data := "HTTP/1.0 404 Not Found\nA: b\n\n"
		resp := NewResponse(newSlots(4))
		status, err := resp.Parse([]byte(data))
		require.NoError(t, err)
		require.True(t, status.Complete)
		require.Equal(t, len(data), status.Len)
		require.Equal(t, uint8(0), resp.Version)
		require.Equal(t, uint16(404), resp.Code)
		require.Equal(t, "Not Found", resp.Reason)
	})

	t.Run("empty reason phrase", func(t *testing.T) {
		for _, data := range []string{"HTTP/1.1 204\r\n\r\n", "HTTP/1.1 204 \r\n\r\n"} {
			resp := NewResponse(newSlots(1))
			status, err := resp.Parse([]byte(data))
			require.NoError(t, err, data)
			require.True(t, status.Complete, data)
			require.Equal(t, uint16(204), resp.Code)
			require.Empty(t, resp.Reason)
		}
	})

	t.Run("leading empty lines", func(t *testing.T) {
		data := "\r\n\r\nHTTP/1.1 200 OK\r\n\r\n"
		status, err := NewResponse(nil).Parse([]byte(data))
		require.NoError(t, err)
		require.True(t, status.Complete)
		require.Equal(t, len(data), status.Len)
	})

	t.Run("empty header value", func(t *testing.T) {
		resp := NewResponse(newSlots(1))
		_, err := resp.Parse([]byte("HTTP/1.1 200 OK\r\nX-Empty:\r\n\r\n"))
		require.NoError(t, err)
		require.Len(t, resp.Headers, 1)
		require.Empty(t, resp.Headers[0].Value)
	})

	t.Run("reused response is reset", func(t *testing.T) {
		resp := NewResponse(newSlots(2))
		_, err := resp.Parse([]byte("HTTP/1.1 200 OK\r\nA: 1\r\n\r\n"))
		require.NoError(t, err)

		status, err := resp.Parse([]byte("HTTP/1.1 3"))
		require.NoError(t, err)
		require.False(t, status.Complete)
		require.False(t, resp.HasCode)
		require.Nil(t, resp.Headers)
	})
}

func TestParse_Incomplete(t *testing.T) {
	full := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nX-A:1\r\n\r\n"

	for i := 0; i < len(full); i++ {
		t.Run(fmt.Sprintf("prefix %d", i), func(t *testing.T) {
			resp := NewResponse(newSlots(4))
			status, err := resp.Parse([]byte(full[:i]))
			require.NoError(t, err)
			require.False(t, status.Complete)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tcs := []struct {
		name string
		data string
		err  error
	}{
		{"not http", "SSH-2.0-OpenSSH\r\n\r\n", ErrVersion},
		{"short garbage", "XY", ErrVersion},
		{"http2", "HTTP/2 200 OK\r\n\r\n", ErrVersion},
		{"missing space after version", "HTTP/1.1200 OK\r\n\r\n", ErrVersion},
		{"letters in code", "HTTP/1.1 2x0 OK\r\n\r\n", ErrStatus},
		{"four digit code", "HTTP/1.1 2000 OK\r\n\r\n", ErrStatus},
		{"control byte in reason", "HTTP/1.1 200 O\x01K\r\n\r\n", ErrStatus},
		{"space in header name", "HTTP/1.1 200 OK\r\nBad Name: x\r\n\r\n", ErrHeaderName},
		{"empty header name", "HTTP/1.1 200 OK\r\n: x\r\n\r\n", ErrHeaderName},
		{"header without colon", "HTTP/1.1 200 OK\r\nNoColon\r\n\r\n", ErrHeaderName},
		{"obs-fold", "HTTP/1.1 200 OK\r\nA: b\r\n c\r\n\r\n", ErrHeaderName},
		{"control byte in value", "HTTP/1.1 200 OK\r\nA: \x00\r\n\r\n", ErrHeaderValue},
		{"stray CR in value", "HTTP/1.1 200 OK\r\nA: b\rc\r\n\r\n", ErrHeaderValue},
		{"CR without LF ending the head", "HTTP/1.1 200 OK\r\n\rX", ErrNewLine},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			status, err := NewResponse(newSlots(4)).Parse([]byte(tc.data))
			require.ErrorIs(t, err, tc.err)
			require.False(t, status.Complete)
		})
	}
}

func TestParse_TooManyHeaders(t *testing.T) {
	const capacity = 30

	build := func(n int) []byte {
		var sb strings.Builder
		sb.WriteString("HTTP/1.1 200 OK\r\n")
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "X-%d: %s\r\n", i, uniuri.NewLen(8))
		}
		sb.WriteString("\r\n")
		return []byte(sb.String())
	}

	t.Run("exactly capacity", func(t *testing.T) {
		resp := NewResponse(newSlots(capacity))
		status, err := resp.Parse(build(capacity))
		require.NoError(t, err)
		require.True(t, status.Complete)
		require.Len(t, resp.Headers, capacity)
	})

	t.Run("one over capacity", func(t *testing.T) {
		resp := NewResponse(newSlots(capacity))
		_, err := resp.Parse(build(capacity + 1))
		require.ErrorIs(t, err, ErrTooManyHeaders)
	})

	t.Run("no slots", func(t *testing.T) {
		_, err := NewResponse(nil).Parse(build(1))
		require.ErrorIs(t, err, ErrTooManyHeaders)
	})
}

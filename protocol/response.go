package protocol

import (
	"strconv"
	"strings"

	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
	jsoniter "github.com/json-iterator/go"
)

// Response is a parsed response whose headers and body are views into the
// protocol's response buffer. Only one Response per protocol may be live:
// it must be released before the next request is accepted. Accessors of a
// released Response return zero values.
type Response struct {
	owner      *Http1Protocol
	statusCode StatusCode
	headers    []Header
	body       []byte
	released   bool
}

func (r *Response) StatusCode() StatusCode {
	if r.released {
		return 0
	}
	return r.statusCode
}

// Headers returns the response headers in wire order. ok is false when the
// response carried no headers at all.
func (r *Response) Headers() (headers []Header, ok bool) {
	if r.released || len(r.headers) == 0 {
		return nil, false
	}
	return r.headers, true
}

func (r *Response) Body() []byte {
	if r.released {
		return nil
	}
	return r.body
}

// Header returns the value of the first header named name, compared
// case-insensitively.
func (r *Response) Header(name string) ([]byte, bool) {
	if r.released {
		return nil, false
	}
	return lookup(r.headers, name)
}

// ContentLength returns the peer's Content-Length header, if present and numeric.
func (r *Response) ContentLength() (int, bool) {
	value, ok := r.Header("Content-Length")
	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(uf.B2S(value)))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Released reports whether Release was called.
func (r *Response) Released() bool {
	return r.released
}

// Release gives the protocol's buffers back. It is safe to call more than once.
func (r *Response) Release() {
	if r.released {
		return
	}

	r.released = true
	r.headers = nil
	r.body = nil
	if r.owner != nil && r.owner.live == r {
		r.owner.live = nil
	}
}

// Clone copies the response out of the protocol's buffers.
func (r *Response) Clone() *SafeResponse {
	if r.released {
		return nil
	}

	var headers []Header
	if len(r.headers) > 0 {
		headers = make([]Header, len(r.headers))
		for i, h := range r.headers {
			headers[i] = Header{
				Name:  strings.Clone(h.Name),
				Value: append([]byte(nil), h.Value...),
			}
		}
	}

	return &SafeResponse{
		StatusCode: r.statusCode,
		Headers:    headers,
		Body:       append([]byte{}, r.body...),
	}
}

// SafeResponse represents an HTTP response (safe mode - copies data).
// Headers is nil when the response carried no headers.
type SafeResponse struct {
	StatusCode StatusCode
	Headers    []Header
	Body       []byte
}

// Header returns the value of the first header named name, compared
// case-insensitively.
func (r *SafeResponse) Header(name string) ([]byte, bool) {
	return lookup(r.Headers, name)
}

// JSON decodes the body into v.
func (r *SafeResponse) JSON(v any) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(r.Body, v)
}

func lookup(headers []Header, name string) ([]byte, bool) {
	for _, h := range headers {
		if strcomp.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}

	return nil, false
}

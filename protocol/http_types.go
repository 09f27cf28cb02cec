package protocol

import (
	"strconv"

	"github.com/imor/http-efi/httparse"
)

// Header is a name/value pair. Headers of a Response borrow its buffer.
type Header = httparse.Header

// Common request methods. Any token is accepted as a method.
const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodOptions = "OPTIONS"
)

// HttpRequest represents an HTTP request.
//
// A nil Body means no body; a non-nil empty Body is still written as a
// (zero-length) body.
type HttpRequest struct {
	Method  string
	Path    string
	Headers []Header
	Body    []byte
}

// StatusCode is a numeric HTTP status as received from the peer.
type StatusCode uint16

func (c StatusCode) String() string {
	return strconv.Itoa(int(c))
}

func (c StatusCode) IsInformational() bool { return c >= 100 && c < 200 }
func (c StatusCode) IsSuccess() bool       { return c >= 200 && c < 300 }
func (c StatusCode) IsRedirect() bool      { return c >= 300 && c < 400 }
func (c StatusCode) IsClientError() bool   { return c >= 400 && c < 500 }
func (c StatusCode) IsServerError() bool   { return c >= 500 && c < 600 }

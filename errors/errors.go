// Package errors defines the single error type returned by every layer of
// the client. Callers branch on HttpError.Type and, for transport and
// protocol failures, on the finer-grained code.
package errors

import (
	stderrors "errors"
	"strconv"
	"strings"
)

// ErrorType is the layer an error originated in.
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorDevice
	ErrorProtocol
	ErrorInvalidArgument
)

var errorTypeNames = [...]string{
	ErrorNone:            "none",
	ErrorTransport:       "transport",
	ErrorDevice:          "device",
	ErrorProtocol:        "protocol",
	ErrorInvalidArgument: "invalid argument",
}

func (t ErrorType) String() string {
	return lookup(errorTypeNames[:], int(t))
}

// TransportError narrows down ErrorTransport and ErrorDevice failures.
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorSocketCloseFailure
	TransportErrorConnectionClosed
	TransportErrorDeviceClosed
	TransportErrorDnsFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

var transportErrorNames = [...]string{
	TransportErrorNone:                 "none",
	TransportErrorSocketCreateFailure:  "socket creation failed",
	TransportErrorSocketConnectFailure: "connect failed",
	TransportErrorSocketReadFailure:    "socket read failed",
	TransportErrorSocketWriteFailure:   "socket write failed",
	TransportErrorSocketCloseFailure:   "socket close failed",
	TransportErrorConnectionClosed:     "connection closed",
	TransportErrorDeviceClosed:         "device stopped accepting bytes",
	TransportErrorDnsFailure:           "DNS lookup failed",
	TransportErrorIoUringInit:          "io_uring setup failed",
	TransportErrorIoUringSubmit:        "io_uring submission failed",
}

func (e TransportError) String() string {
	return lookup(transportErrorNames[:], int(e))
}

// ProtocolError narrows down ErrorProtocol failures.
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorInvalidStatusLine
	ProtocolErrorInvalidHeader
	ProtocolErrorTooManyHeaders
	ProtocolErrorMissingStatusCode
	ProtocolErrorMessageTooLarge
	ProtocolErrorIncompleteResponse
)

var protocolErrorNames = [...]string{
	ProtocolErrorNone:               "none",
	ProtocolErrorInvalidStatusLine:  "invalid status line",
	ProtocolErrorInvalidHeader:      "invalid header",
	ProtocolErrorTooManyHeaders:     "too many headers",
	ProtocolErrorMissingStatusCode:  "missing status code",
	ProtocolErrorMessageTooLarge:    "message too large",
	ProtocolErrorIncompleteResponse: "incomplete response",
}

func (e ProtocolError) String() string {
	return lookup(protocolErrorNames[:], int(e))
}

func lookup(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return "unknown(" + strconv.Itoa(i) + ")"
}

// HttpError is returned by every exported operation in this module. Only
// the code field matching Type is meaningful.
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	Message       string
	UnderlyingErr error
}

// Error renders as "<type>[: <code>][: <message>][: <cause>]".
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var b strings.Builder
	b.WriteString(e.Type.String())

	switch e.Type {
	case ErrorTransport, ErrorDevice:
		b.WriteString(": ")
		b.WriteString(e.TransportErr.String())
	case ErrorProtocol:
		b.WriteString(": ")
		b.WriteString(e.ProtocolErr.String())
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.UnderlyingErr != nil {
		b.WriteString(": ")
		b.WriteString(e.UnderlyingErr.Error())
	}

	return b.String()
}

func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

func newError(typ ErrorType, message string, underlying error) *HttpError {
	return &HttpError{Type: typ, Message: message, UnderlyingErr: underlying}
}

func NewTransportError(code TransportError, message string, underlying error) *HttpError {
	err := newError(ErrorTransport, message, underlying)
	err.TransportErr = code
	return err
}

// NewDeviceError reports a transport that accepted zero bytes. The
// connection must not be reused.
func NewDeviceError(message string) *HttpError {
	err := newError(ErrorDevice, message, nil)
	err.TransportErr = TransportErrorDeviceClosed
	return err
}

func NewProtocolError(code ProtocolError, message string, underlying error) *HttpError {
	err := newError(ErrorProtocol, message, underlying)
	err.ProtocolErr = code
	return err
}

func NewInvalidArgumentError(message string) *HttpError {
	return newError(ErrorInvalidArgument, message, nil)
}

// TypeOf returns the Type of the first *HttpError in err's chain, or
// ErrorNone.
func TypeOf(err error) ErrorType {
	if httpErr, ok := as(err); ok {
		return httpErr.Type
	}
	return ErrorNone
}

func IsTransport(err error) bool       { return TypeOf(err) == ErrorTransport }
func IsDevice(err error) bool          { return TypeOf(err) == ErrorDevice }
func IsProtocol(err error) bool        { return TypeOf(err) == ErrorProtocol }
func IsInvalidArgument(err error) bool { return TypeOf(err) == ErrorInvalidArgument }

// IsConnectionClosed reports whether the peer ended the stream.
func IsConnectionClosed(err error) bool {
	httpErr, ok := as(err)
	return ok && httpErr.Type == ErrorTransport && httpErr.TransportErr == TransportErrorConnectionClosed
}

func as(err error) (*HttpError, bool) {
	var httpErr *HttpError
	ok := stderrors.As(err, &httpErr)
	return httpErr, ok
}

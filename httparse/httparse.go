// Package httparse parses the head of an HTTP/1.x response (status line and
// header block) into a caller-provided, fixed-capacity slice of header slots.
//
// Parsing never allocates: header names, values and the reason phrase are
// views into the parsed buffer and stay valid only as long as that buffer
// is not modified.
package httparse

import (
	"bytes"
	"errors"

	"github.com/indigo-web/utils/uf"
)

var (
	ErrVersion        = errors.New("invalid HTTP version")
	ErrStatus         = errors.New("invalid response status")
	ErrHeaderName     = errors.New("invalid header name")
	ErrHeaderValue    = errors.New("invalid header value")
	ErrNewLine        = errors.New("invalid new line")
	ErrTooManyHeaders = errors.New("too many headers")
)

// Header is a single name/value pair. Both fields borrow the parsed buffer.
type Header struct {
	Name  string
	Value []byte
}

// EmptyHeader is the zero value used to fill header slots.
var EmptyHeader = Header{}

// Status reports how much of the input a Parse call consumed.
// Len is meaningful only when Complete is true.
type Status struct {
	Complete bool
	Len      int
}

// Response receives the parsed head of a response.
type Response struct {
	// Version is the minor HTTP version (HTTP/1.<Version>).
	Version uint8
	Code    uint16
	// HasCode is set once a full three-digit status code has been read.
	HasCode bool
	Reason  string
	// Headers is a prefix of the slot slice passed to NewResponse, set on
	// completion.
	Headers []Header

	slots []Header
}

// NewResponse returns a Response that parses at most len(slots) headers.
func NewResponse(slots []Header) *Response {
	return &Response{slots: slots}
}

// Parse parses buf from its start. It returns a complete Status with the
// length of the head, an incomplete Status if buf ends before the blank
// line terminating the head, or an error if buf cannot be a valid head.
func (r *Response) Parse(buf []byte) (Status, error) {
	r.reset()

	pos := skipEmptyLines(buf)

	pos, ok, err := r.parseVersion(buf, pos)
	if err != nil || !ok {
		return Status{}, err
	}

	pos, ok, err = r.parseCode(buf, pos)
	if err != nil || !ok {
		return Status{}, err
	}

	pos, ok, err = r.parseReason(buf, pos)
	if err != nil || !ok {
		return Status{}, err
	}

	count := 0
	for {
		if pos >= len(buf) {
			return Status{}, nil
		}

		switch buf[pos] {
		case '\r':
			if pos+1 >= len(buf) {
				return Status{}, nil
			}
			if buf[pos+1] != '\n' {
				return Status{}, ErrNewLine
			}
			r.Headers = r.slots[:count]
			return Status{Complete: true, Len: pos + 2}, nil
		case '\n':
			r.Headers = r.slots[:count]
			return Status{Complete: true, Len: pos + 1}, nil
		}

		if count == len(r.slots) {
			return Status{}, ErrTooManyHeaders
		}

		var header Header
		pos, header, ok, err = parseHeader(buf, pos)
		if err != nil || !ok {
			return Status{}, err
		}

		r.slots[count] = header
		count++
	}
}

func (r *Response) reset() {
	r.Version = 0
	r.Code = 0
	r.HasCode = false
	r.Reason = ""
	r.Headers = nil
}

func skipEmptyLines(buf []byte) int {
	pos := 0
	for pos < len(buf) && (buf[pos] == '\r' || buf[pos] == '\n') {
		pos++
	}

	return pos
}

const versionPrefix = "HTTP/1."

func (r *Response) parseVersion(buf []byte, pos int) (int, bool, error) {
	rest := buf[pos:]
	if len(rest) < len(versionPrefix)+2 {
		// too short to decide, but it must still be a prefix of a version token
		n := min(len(rest), len(versionPrefix))
		if uf.B2S(rest[:n]) != versionPrefix[:n] {
			return pos, false, ErrVersion
		}
		if len(rest) > len(versionPrefix) && !isDigit(rest[len(versionPrefix)]) {
			return pos, false, ErrVersion
		}
		return pos, false, nil
	}

	if uf.B2S(rest[:len(versionPrefix)]) != versionPrefix || !isDigit(rest[len(versionPrefix)]) {
		return pos, false, ErrVersion
	}

	if rest[len(versionPrefix)+1] != ' ' {
		return pos, false, ErrVersion
	}

	r.Version = rest[len(versionPrefix)] - '0'
	return pos + len(versionPrefix) + 2, true, nil
}

func (r *Response) parseCode(buf []byte, pos int) (int, bool, error) {
	var code uint16
	for i := 0; i < 3; i++ {
		if pos+i >= len(buf) {
			return pos, false, nil
		}
		if !isDigit(buf[pos+i]) {
			return pos, false, ErrStatus
		}
		code = code*10 + uint16(buf[pos+i]-'0')
	}

	pos += 3
	if pos >= len(buf) {
		return pos, false, nil
	}

	switch buf[pos] {
	case ' ':
		pos++
	case '\r', '\n':
	default:
		return pos, false, ErrStatus
	}

	r.Code = code
	r.HasCode = true
	return pos, true, nil
}

func (r *Response) parseReason(buf []byte, pos int) (int, bool, error) {
	lf := bytes.IndexByte(buf[pos:], '\n')
	if lf == -1 {
		for _, c := range buf[pos:] {
			if !isReasonByte(c) && c != '\r' {
				return pos, false, ErrStatus
			}
		}
		return pos, false, nil
	}

	line, err := stripCR(buf[pos:pos+lf], ErrStatus)
	if err != nil {
		return pos, false, err
	}

	for _, c := range line {
		if !isReasonByte(c) {
			return pos, false, ErrStatus
		}
	}

	r.Reason = uf.B2S(line)
	return pos + lf + 1, true, nil
}

func parseHeader(buf []byte, pos int) (int, Header, bool, error) {
	start := pos
	for ; pos < len(buf) && buf[pos] != ':'; pos++ {
		if !isToken(buf[pos]) {
			return pos, Header{}, false, ErrHeaderName
		}
	}

	if pos >= len(buf) {
		return pos, Header{}, false, nil
	}

	if pos == start {
		return pos, Header{}, false, ErrHeaderName
	}

	name := uf.B2S(buf[start:pos])
	pos++

	lf := bytes.IndexByte(buf[pos:], '\n')
	if lf == -1 {
		for _, c := range buf[pos:] {
			if !isValueByte(c) && c != '\r' {
				return pos, Header{}, false, ErrHeaderValue
			}
		}
		return pos, Header{}, false, nil
	}

	value, err := stripCR(buf[pos:pos+lf], ErrHeaderValue)
	if err != nil {
		return pos, Header{}, false, err
	}

	for _, c := range value {
		if !isValueByte(c) {
			return pos, Header{}, false, ErrHeaderValue
		}
	}

	return pos + lf + 1, Header{Name: name, Value: trimSpaces(value)}, true, nil
}

// stripCR removes a single trailing CR. A CR anywhere else is malformed.
func stripCR(line []byte, malformed error) ([]byte, error) {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	if bytes.IndexByte(line, '\r') != -1 {
		return nil, malformed
	}

	return line, nil
}

func trimSpaces(b []byte) []byte {
	for len(b) > 0 && isSpace(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}

	return b
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// HTAB / SP / VCHAR / obs-text
func isReasonByte(c byte) bool {
	return c == '\t' || c == ' ' || (c >= 0x21 && c != 0x7f)
}

func isValueByte(c byte) bool {
	return isReasonByte(c)
}

var tokenTable = func() (table [256]bool) {
	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
		table[c-'a'+'A'] = true
	}
	for _, c := range "!#$%&'*+-.^_`|~" {
		table[c] = true
	}

	return table
}()

func isToken(c byte) bool {
	return tokenTable[c]
}

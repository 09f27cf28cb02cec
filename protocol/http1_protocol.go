package protocol

import (
	stderrors "errors"
	"io"
	"strconv"

	"github.com/indigo-web/utils/buffer"
	"github.com/rs/zerolog"

	"github.com/imor/http-efi/bufwriter"
	"github.com/imor/http-efi/config"
	"github.com/imor/http-efi/errors"
	"github.com/imor/http-efi/httparse"
	"github.com/imor/http-efi/transport"
)

const (
	crlf           = "\r\n"
	requestVersion = " HTTP/1.1\r\n"
	contentLength  = "Content-Length"
)

// Http1Protocol implements a single-exchange HTTP/1.1 client over a transport.
//
// Requests go out through a fixed-size buffered writer and are flushed
// before the response is read. The response is read until the peer ends the
// stream and then parsed in place: the returned Response borrows the
// protocol's buffers and header slots until it is released.
//
// Http1Protocol is not safe for concurrent use.
type Http1Protocol struct {
	transport transport.Transport
	io        *bufwriter.Writer
	slots     []Header
	head      *httparse.Response
	respBuf   *buffer.Buffer[byte]
	readBuf   []byte
	live      *Response
	cfg       *config.Config
	log       zerolog.Logger
}

// Option configures an Http1Protocol.
type Option func(*Http1Protocol)

// WithConfig sets buffer sizes and limits. Zero or negative sizes fall back
// to the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(p *Http1Protocol) {
		if cfg != nil {
			p.cfg = cfg
		}
	}
}

// WithLogger sets the logger used for per-exchange debug events.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Http1Protocol) {
		p.log = log
	}
}

// NewHttp1Protocol creates a new HTTP/1.1 protocol handler. All buffers are
// allocated here, once.
func NewHttp1Protocol(t transport.Transport, opts ...Option) *Http1Protocol {
	p := &Http1Protocol{
		transport: t,
		cfg:       config.Default(),
		log:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	defaults := config.Default()
	maxHeaders := p.cfg.Response.MaxHeaders
	if maxHeaders < 0 {
		maxHeaders = defaults.Response.MaxHeaders
	}
	readChunk := p.cfg.Response.ReadChunkSize
	if readChunk <= 0 {
		readChunk = defaults.Response.ReadChunkSize
	}
	maxSize := p.cfg.Response.MaxSize
	if maxSize <= 0 {
		maxSize = defaults.Response.MaxSize
	}
	initial := min(max(p.cfg.Response.InitialBufferSize, 0), maxSize)

	p.io = bufwriter.New(t, p.cfg.Writer.BufferSize)
	p.slots = make([]Header, maxHeaders)
	p.head = httparse.NewResponse(p.slots)
	p.respBuf = buffer.NewBuffer[byte](initial, maxSize)
	p.readBuf = make([]byte, readChunk)

	return p
}

// Connect establishes a connection to the specified host and port
func (p *Http1Protocol) Connect(host string, port uint16) error {
	if err := p.transport.Connect(host, port); err != nil {
		p.log.Debug().Err(err).Str("host", host).Uint16("port", port).Msg("connect failed")
		return err
	}

	p.log.Debug().Str("host", host).Uint16("port", port).Msg("connected")
	return nil
}

// Disconnect closes the connection. Transports holding extra resources
// (io_uring rings) are destroyed as well.
func (p *Http1Protocol) Disconnect() error {
	err := p.transport.Close()
	if d, ok := p.transport.(interface{ Destroy() }); ok {
		d.Destroy()
	}

	return err
}

// Transport returns the underlying transport.
func (p *Http1Protocol) Transport() transport.Transport {
	return p.transport
}

// Live returns the response that has not been released yet, if any.
func (p *Http1Protocol) Live() *Response {
	return p.live
}

// PerformRequest sends req and returns the parsed response, which borrows the
// protocol's buffers. It fails with an invalid argument error while a
// previous response is still live.
func (p *Http1Protocol) PerformRequest(req *HttpRequest) (*Response, error) {
	if p.live != nil {
		return nil, errors.NewInvalidArgumentError("previous response is still in use")
	}

	if req.Method == "" || req.Path == "" {
		return nil, errors.NewInvalidArgumentError("method and path must not be empty")
	}

	if err := p.writeRequest(req); err != nil {
		// unsent bytes of this request must not prefix the next one
		p.io.Reset(p.transport)
		p.log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("sending request failed")
		return nil, err
	}

	total, err := p.readFullResponse()
	if err != nil {
		p.log.Debug().Err(err).Int("read", total).Msg("reading response failed")
		return nil, err
	}

	resp, err := p.parseResponse(total)
	if err != nil {
		p.log.Debug().Err(err).Int("read", total).Msg("parsing response failed")
		return nil, err
	}

	p.log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("read", total).
		Uint16("status", uint16(resp.statusCode)).
		Int("headers", len(resp.headers)).
		Int("body", len(resp.body)).
		Msg("exchange complete")

	p.live = resp
	return resp, nil
}

// PerformRequestSafe performs an HTTP request and returns a copied response.
// The borrowed response is released before returning.
func (p *Http1Protocol) PerformRequestSafe(req *HttpRequest) (*SafeResponse, error) {
	resp, err := p.PerformRequest(req)
	if err != nil {
		return nil, err
	}

	defer resp.Release()
	return resp.Clone(), nil
}

// writeRequest renders req into the buffered writer and flushes it:
//
//	<method> <path> HTTP/1.1\r\n
//	<name>:<value>\r\n          (caller headers, as given)
//	Content-Length:<n>\r\n
//	\r\n
//	\r\n<body>                  (only for a non-nil body)
//
// Content-Length is always appended, even if the caller passed one.
func (p *Http1Protocol) writeRequest(req *HttpRequest) error {
	w := p.io

	if _, err := w.WriteString(req.Method); err != nil {
		return err
	}
	if _, err := w.WriteString(" "); err != nil {
		return err
	}
	if _, err := w.WriteString(req.Path); err != nil {
		return err
	}
	if _, err := w.WriteString(requestVersion); err != nil {
		return err
	}

	for _, header := range req.Headers {
		if err := p.writeHeader(header.Name, header.Value); err != nil {
			return err
		}
	}

	var digits [20]byte
	if err := p.writeHeader(contentLength, strconv.AppendInt(digits[:0], int64(len(req.Body)), 10)); err != nil {
		return err
	}

	if _, err := w.WriteString(crlf); err != nil {
		return err
	}

	if req.Body != nil {
		if _, err := w.WriteString(crlf); err != nil {
			return err
		}
		if _, err := w.Write(req.Body); err != nil {
			return err
		}
	}

	return w.Flush()
}

func (p *Http1Protocol) writeHeader(name string, value []byte) error {
	w := p.io

	if _, err := w.WriteString(name); err != nil {
		return err
	}
	if _, err := w.WriteString(":"); err != nil {
		return err
	}
	if _, err := w.Write(value); err != nil {
		return err
	}
	_, err := w.WriteString(crlf)
	return err
}

// readFullResponse reads until the peer ends the stream and returns the
// number of bytes read. The response buffer is cleared first, so it only
// ever holds the current response.
func (p *Http1Protocol) readFullResponse() (int, error) {
	p.respBuf.Clear()

	total := 0
	for {
		n, err := p.io.Read(p.readBuf)
		if n > 0 {
			if !p.respBuf.Append(p.readBuf[:n]...) {
				return total, errors.NewProtocolError(
					errors.ProtocolErrorMessageTooLarge,
					"response exceeds the configured maximal size",
					nil,
				)
			}
			total += n
		}

		switch {
		case err == nil && n == 0:
			return total, nil
		case err == nil:
		case errors.IsConnectionClosed(err), stderrors.Is(err, io.EOF):
			return total, nil
		default:
			return total, err
		}
	}
}

// parseResponse parses the accumulated response into a Response.
func (p *Http1Protocol) parseResponse(total int) (*Response, error) {
	data := p.respBuf.Finish()

	status, err := p.head.Parse(data)
	if err != nil {
		return nil, classifyParseError(err)
	}

	if !status.Complete {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorIncompleteResponse,
			"stream ended before the end of the response head",
			nil,
		)
	}

	if !p.head.HasCode {
		return nil, errors.NewProtocolError(errors.ProtocolErrorMissingStatusCode, "", nil)
	}

	// everything after the head belongs to the body
	bodyLen := total - status.Len
	resp := &Response{
		owner:      p,
		statusCode: StatusCode(p.head.Code),
		body:       data[len(data)-bodyLen:],
	}
	if len(p.head.Headers) > 0 {
		resp.headers = p.head.Headers
	}

	return resp, nil
}

func classifyParseError(err error) error {
	switch {
	case stderrors.Is(err, httparse.ErrTooManyHeaders):
		return errors.NewProtocolError(errors.ProtocolErrorTooManyHeaders, "", err)
	case stderrors.Is(err, httparse.ErrHeaderName),
		stderrors.Is(err, httparse.ErrHeaderValue),
		stderrors.Is(err, httparse.ErrNewLine):
		return errors.NewProtocolError(errors.ProtocolErrorInvalidHeader, "", err)
	default:
		return errors.NewProtocolError(errors.ProtocolErrorInvalidStatusLine, "", err)
	}
}

// Package client provides a small blocking HTTP/1.1 client that performs one
// request at a time over a single transport connection.
package client

import (
	"github.com/rs/zerolog"

	"github.com/imor/http-efi/config"
	"github.com/imor/http-efi/errors"
	"github.com/imor/http-efi/protocol"
	"github.com/imor/http-efi/transport"
)

type (
	Header       = protocol.Header
	Response     = protocol.Response
	SafeResponse = protocol.SafeResponse
	StatusCode   = protocol.StatusCode
)

// HttpClient provides a high-level HTTP client API
type HttpClient struct {
	protocol *protocol.Http1Protocol
}

// NewHttpClient creates a new HTTP client with the given protocol
func NewHttpClient(proto *protocol.Http1Protocol) *HttpClient {
	return &HttpClient{
		protocol: proto,
	}
}

type options struct {
	cfg       *config.Config
	log       zerolog.Logger
	transport transport.Transport
}

// Option configures Connect.
type Option func(*options)

// WithConfig sets buffer sizes, limits and the transport kind.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger for connection and exchange events.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithTransport uses t instead of building a transport from the config.
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// Connect dials host:port (a socket path for Unix transports) and returns a
// client owning the connection.
func Connect(host string, port uint16, opts ...Option) (*HttpClient, error) {
	o := options{
		cfg: config.Default(),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	t := o.transport
	if t == nil {
		kind, err := transport.ParseKind(o.cfg.Transport.Kind)
		if err != nil {
			return nil, err
		}

		if t, err = transport.New(kind); err != nil {
			return nil, err
		}
	}

	c := NewHttpClient(protocol.NewHttp1Protocol(
		t,
		protocol.WithConfig(o.cfg),
		protocol.WithLogger(o.log),
	))

	if err := c.Connect(host, port); err != nil {
		if derr := c.Disconnect(); derr != nil {
			o.log.Debug().Err(derr).Msg("cleanup after failed connect")
		}
		return nil, err
	}

	return c, nil
}

// Connect establishes a connection to the specified host and port
func (c *HttpClient) Connect(host string, port uint16) error {
	return c.protocol.Connect(host, port)
}

// Disconnect closes the connection
func (c *HttpClient) Disconnect() error {
	return c.protocol.Disconnect()
}

// Protocol returns the underlying protocol handler.
func (c *HttpClient) Protocol() *protocol.Http1Protocol {
	return c.protocol
}

// Request performs a request and returns a zero-copy response. The response
// must be released before the next request.
func (c *HttpClient) Request(method, path string, headers []Header, body []byte) (*Response, error) {
	return c.protocol.PerformRequest(&protocol.HttpRequest{
		Method:  method,
		Path:    path,
		Headers: headers,
		Body:    body,
	})
}

// RequestSafe performs a request and returns a copied response.
func (c *HttpClient) RequestSafe(method, path string, headers []Header, body []byte) (*SafeResponse, error) {
	return c.protocol.PerformRequestSafe(&protocol.HttpRequest{
		Method:  method,
		Path:    path,
		Headers: headers,
		Body:    body,
	})
}

// GetUnsafe performs a GET request and returns a zero-copy response
func (c *HttpClient) GetUnsafe(path string, headers []Header) (*Response, error) {
	return c.Request(protocol.MethodGet, path, headers, nil)
}

// GetSafe performs a GET request and returns a copied response
func (c *HttpClient) GetSafe(path string, headers []Header) (*SafeResponse, error) {
	return c.RequestSafe(protocol.MethodGet, path, headers, nil)
}

// PostUnsafe performs a POST request and returns a zero-copy response
func (c *HttpClient) PostUnsafe(path string, headers []Header, body []byte) (*Response, error) {
	if body == nil {
		return nil, errors.NewInvalidArgumentError("POST request must have a body")
	}
	return c.Request(protocol.MethodPost, path, headers, body)
}

// PostSafe performs a POST request and returns a copied response
func (c *HttpClient) PostSafe(path string, headers []Header, body []byte) (*SafeResponse, error) {
	if body == nil {
		return nil, errors.NewInvalidArgumentError("POST request must have a body")
	}
	return c.RequestSafe(protocol.MethodPost, path, headers, body)
}

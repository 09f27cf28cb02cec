package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/imor/http-efi/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	Writer struct {
		// BufferSize is the capacity of the outgoing buffer. Requests are
		// coalesced into transport writes of at most this many bytes.
		BufferSize int `json:"buffer_size"`
	}

	Response struct {
		// MaxHeaders is the number of header slots allocated once per client.
		// A response carrying more headers fails with a protocol error.
		MaxHeaders int `json:"max_headers"`
		// ReadChunkSize is how many bytes a single transport read asks for.
		ReadChunkSize int `json:"read_chunk_size"`
		// InitialBufferSize is the initial capacity of the response buffer.
		InitialBufferSize int `json:"initial_buffer_size"`
		// MaxSize limits the whole response (head and body) in bytes.
		MaxSize int `json:"max_size"`
	}

	Transport struct {
		// Kind is one of tcp, unix, uring or uring2.
		Kind string `json:"kind"`
	}
)

// Config holds every tunable of the client.
type Config struct {
	Writer    Writer    `json:"writer"`
	Response  Response  `json:"response"`
	Transport Transport `json:"transport"`
}

// Default returns default config. It is allowed to be modified.
func Default() *Config {
	return &Config{
		Writer: Writer{
			BufferSize: 1024,
		},
		Response: Response{
			MaxHeaders:        30,
			ReadChunkSize:     1024,
			InitialBufferSize: 4 * 1024,
			MaxSize:           16 * 1024 * 1024,
		},
		Transport: Transport{
			Kind: "tcp",
		},
	}
}

// FromJSON overlays data on top of the defaults and validates the result.
// Fields missing from data keep their default values.
func FromJSON(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, &errors.HttpError{
			Type:          errors.ErrorInvalidArgument,
			Message:       "malformed config",
			UnderlyingErr: err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads a JSON config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.HttpError{
			Type:          errors.ErrorInvalidArgument,
			Message:       fmt.Sprintf("read config %s", path),
			UnderlyingErr: err,
		}
	}

	return FromJSON(data)
}

// Validate rejects sizes the client cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Writer.BufferSize <= 0:
		return errors.NewInvalidArgumentError("writer.buffer_size must be positive")
	case c.Response.MaxHeaders < 0:
		return errors.NewInvalidArgumentError("response.max_headers must not be negative")
	case c.Response.ReadChunkSize <= 0:
		return errors.NewInvalidArgumentError("response.read_chunk_size must be positive")
	case c.Response.InitialBufferSize < 0:
		return errors.NewInvalidArgumentError("response.initial_buffer_size must not be negative")
	case c.Response.MaxSize < c.Response.InitialBufferSize:
		return errors.NewInvalidArgumentError("response.max_size must not be less than response.initial_buffer_size")
	}

	return nil
}

// Marshal renders the config as indented JSON.
func (c *Config) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

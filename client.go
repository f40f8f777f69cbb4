package wasinn

import (
	"log/slog"

	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/infrastructure/wasm"
)

// Client issues wasi_ephemeral_nn calls through an NNHost. The zero-option
// client talks to the module's real imports; tests inject a stub host and a
// simulated memory.
type Client struct {
	host     ports.NNHost
	image    ports.ImageHost
	newArena func() ports.Arena
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHost sets the host entry points. If h also implements
// ports.ImageHost it is used for image conversion unless WithImageHost
// overrides it.
func WithHost(h ports.NNHost) Option {
	return func(c *Client) {
		c.host = h
	}
}

// WithImageHost sets the image conversion entry points.
func WithImageHost(h ports.ImageHost) Option {
	return func(c *Client) {
		c.image = h
	}
}

// WithArenaFactory sets the constructor of the per-call arena.
func WithArenaFactory(fn func() ports.Arena) Option {
	return func(c *Client) {
		c.newArena = fn
	}
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client. Without options it is bound to the
// wasi_ephemeral_nn imports of the running module.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.host == nil {
		imports := wasm.NewImportHost()
		c.host = imports
		if c.image == nil {
			c.image = imports
		}
	}
	if c.image == nil {
		if ih, ok := c.host.(ports.ImageHost); ok {
			c.image = ih
		}
	}
	if c.newArena == nil {
		c.newArena = wasm.NewArena
	}
	return c
}

// log returns the configured logger, falling back to the current default.
func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

var defaultClient = NewClient()

// Load loads a graph through the module's wasi_ephemeral_nn imports.
func Load(blobs [][]byte, encoding GraphEncoding, target ExecutionTarget) (*Graph, error) {
	return defaultClient.Load(blobs, encoding, target)
}

// ConvertImage converts an image through the module's imports.
func ConvertImage(req ImageRequest, buf []byte) ([]byte, error) {
	return defaultClient.ConvertImage(req, buf)
}

// ImageToTensor converts an image through the module's imports.
func ImageToTensor(req ImageRequest, buf []byte) ([]byte, error) {
	return defaultClient.ImageToTensor(req, buf)
}

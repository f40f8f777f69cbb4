package host

import (
	"log/slog"

	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithHostFunctions replaces the nn host module with the functions of
// registry. Backend and image options are then ignored.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithBackend sets the inference backend (default: the echo backend).
func WithBackend(backend ports.Backend, opts ...hostfuncs.NNOption) Option {
	return func(e *Executor) {
		e.backend = backend
		e.nnOpts = opts
	}
}

// WithImage exports image_to_tensor and convert_image backed by im.
func WithImage(im *hostfuncs.Image) Option {
	return func(e *Executor) {
		e.image = im
	}
}

// WithLogger sets the logger for host calls and replayed guest logs.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithMemoryLimitPages caps guest memory in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) {
		e.memoryLimitPages = pages
	}
}

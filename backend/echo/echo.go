// Package echo provides an inference backend whose outputs mirror its
// inputs. Output i of a computed session is the bytes of input i.
//
// It exists so that hosts and guests can exercise the whole
// wasi_ephemeral_nn call sequence without a real inference engine.
package echo

import (
	"context"
	"slices"
	"sync"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
)

// Compile-time interface compliance checks
var (
	_ ports.Backend = (*Backend)(nil)
	_ ports.Model   = (*Model)(nil)
	_ ports.Session = (*Session)(nil)
)

// Backend loads echo models.
type Backend struct {
	encodings []entities.GraphEncoding
	targets   []entities.ExecutionTarget
}

// Option configures a Backend.
type Option func(*Backend)

// WithEncodings restricts the encodings Load accepts. By default every
// encoding is accepted.
func WithEncodings(encs ...entities.GraphEncoding) Option {
	return func(b *Backend) {
		b.encodings = encs
	}
}

// WithTargets restricts the targets Load accepts. By default only CPU is
// accepted.
func WithTargets(targets ...entities.ExecutionTarget) Option {
	return func(b *Backend) {
		b.targets = targets
	}
}

// New creates an echo backend.
func New(opts ...Option) *Backend {
	b := &Backend{targets: []entities.ExecutionTarget{entities.TargetCPU}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load accepts any non-empty blob sequence.
func (b *Backend) Load(_ context.Context, blobs [][]byte, enc entities.GraphEncoding, target entities.ExecutionTarget) (ports.Model, error) {
	if len(b.encodings) > 0 && !slices.Contains(b.encodings, enc) {
		return nil, hostfuncs.Errorf(hostfuncs.ErrnoInvalidEncoding, "echo backend does not accept %s", enc)
	}
	if !slices.Contains(b.targets, target) {
		return nil, hostfuncs.Errorf(hostfuncs.ErrnoUnsupportedOperation, "echo backend cannot run on %s", target)
	}
	if len(blobs) == 0 {
		return nil, hostfuncs.Errorf(hostfuncs.ErrnoInvalidArgument, "no graph blobs")
	}
	return &Model{blobs: blobs, encoding: enc, target: target}, nil
}

// Model is a loaded echo graph.
type Model struct {
	blobs    [][]byte
	encoding entities.GraphEncoding
	target   entities.ExecutionTarget
}

// Blobs returns the blobs the model was loaded from.
func (m *Model) Blobs() [][]byte { return m.blobs }

// Encoding returns the encoding the model was loaded with.
func (m *Model) Encoding() entities.GraphEncoding { return m.encoding }

// NewSession implements ports.Model.
func (m *Model) NewSession(context.Context) (ports.Session, error) {
	return &Session{inputs: make(map[uint32]entities.Tensor)}, nil
}

// Session holds the inputs of one echo inference.
type Session struct {
	mu      sync.Mutex
	inputs  map[uint32]entities.Tensor
	outputs map[uint32][]byte
}

// SetInput implements ports.Session.
func (s *Session) SetInput(_ context.Context, index uint32, t entities.Tensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[index] = t
	return nil
}

// Compute snapshots the current inputs as outputs.
func (s *Session) Compute(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return hostfuncs.Errorf(hostfuncs.ErrnoRuntimeError, "compute called with no inputs")
	}
	s.outputs = make(map[uint32][]byte, len(s.inputs))
	for i, t := range s.inputs {
		s.outputs[i] = t.Bytes()
	}
	return nil
}

// Output implements ports.Session.
func (s *Session) Output(_ context.Context, index uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outputs == nil {
		return nil, hostfuncs.Errorf(hostfuncs.ErrnoRuntimeError, "output requested before compute")
	}
	out, ok := s.outputs[index]
	if !ok {
		return nil, hostfuncs.Errorf(hostfuncs.ErrnoNotFound, "no output %d", index)
	}
	return out, nil
}

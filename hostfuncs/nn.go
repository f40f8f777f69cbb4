package hostfuncs

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
)

// Names of the wasi_ephemeral_nn functions.
const (
	FuncLoad                 = "load"
	FuncInitExecutionContext = "init_execution_context"
	FuncSetInput             = "set_input"
	FuncCompute              = "compute"
	FuncGetOutput            = "get_output"
)

// DefaultMaxBlobBytes bounds the total size of the blobs a single load call
// may copy out of guest memory (1 GiB).
const DefaultMaxBlobBytes = 1 << 30

// session guards a backend session against overlapping calls.
type session struct {
	ports.Session
	inUse atomic.Bool
}

// NN implements the inference functions of wasi_ephemeral_nn on top of a
// Backend. One NN serves one guest module instance.
type NN struct {
	backend  ports.Backend
	graphs   *Table[ports.Model]
	contexts *Table[*session]
	logger   *slog.Logger
	maxBlob  uint64
}

type nnConfig struct {
	logger      *slog.Logger
	maxBlob     uint64
	maxGraphs   int
	maxContexts int
}

// NNOption configures an NN.
type NNOption func(*nnConfig)

// WithMaxBlobBytes limits the total bytes copied out of guest memory by load.
func WithMaxBlobBytes(n uint64) NNOption {
	return func(c *nnConfig) {
		c.maxBlob = n
	}
}

// WithMaxGraphs limits the number of live graph handles.
func WithMaxGraphs(n int) NNOption {
	return func(c *nnConfig) {
		c.maxGraphs = n
	}
}

// WithMaxContexts limits the number of live execution context handles.
func WithMaxContexts(n int) NNOption {
	return func(c *nnConfig) {
		c.maxContexts = n
	}
}

// WithNNLogger sets the logger for backend failures.
func WithNNLogger(l *slog.Logger) NNOption {
	return func(c *nnConfig) {
		c.logger = l
	}
}

// NewNN creates the inference host functions over backend.
func NewNN(backend ports.Backend, opts ...NNOption) *NN {
	cfg := nnConfig{maxBlob: DefaultMaxBlobBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &NN{
		backend:  backend,
		graphs:   NewTable[ports.Model](cfg.maxGraphs),
		contexts: NewTable[*session](cfg.maxContexts),
		logger:   cfg.logger,
		maxBlob:  cfg.maxBlob,
	}
}

// Graphs returns the number of live graph handles.
func (n *NN) Graphs() int { return n.graphs.Len() }

// Contexts returns the number of live execution context handles.
func (n *NN) Contexts() int { return n.contexts.Len() }

// Reset drops every graph and context, for reuse across module instances.
func (n *NN) Reset() {
	n.contexts.Clear()
	n.graphs.Clear()
}

// Load decodes the graph builder array at builderPtr and loads it.
func (n *NN) Load(ctx context.Context, mem ports.Memory, builderPtr, builderLen, encoding, target, outGraph uint32) Errno {
	enc := entities.GraphEncoding(encoding)
	if !enc.Valid() {
		return ErrnoInvalidEncoding
	}
	tgt := entities.ExecutionTarget(target)
	if !tgt.Valid() {
		return ErrnoInvalidArgument
	}

	blobs, err := abi.ReadBlobs(mem, builderPtr, builderLen, n.maxBlob)
	if err != nil {
		return n.fail(ctx, FuncLoad, err)
	}

	model, err := n.backend.Load(ctx, blobs, enc, tgt)
	if err != nil {
		return n.fail(ctx, FuncLoad, err)
	}

	h, err := n.graphs.Insert(model)
	if err != nil {
		return n.fail(ctx, FuncLoad, err)
	}
	if !mem.WriteUint32Le(outGraph, h) {
		n.graphs.Remove(h)
		return ErrnoInvalidArgument
	}
	return ErrnoSuccess
}

// InitExecutionContext creates a session for graph.
func (n *NN) InitExecutionContext(ctx context.Context, mem ports.Memory, graph, outContext uint32) Errno {
	model, ok := n.graphs.Get(graph)
	if !ok {
		return ErrnoInvalidArgument
	}

	s, err := model.NewSession(ctx)
	if err != nil {
		return n.fail(ctx, FuncInitExecutionContext, err)
	}

	h, err := n.contexts.Insert(&session{Session: s})
	if err != nil {
		return n.fail(ctx, FuncInitExecutionContext, err)
	}
	if !mem.WriteUint32Le(outContext, h) {
		n.contexts.Remove(h)
		return ErrnoInvalidArgument
	}
	return ErrnoSuccess
}

// SetInput decodes the tensor descriptor at tensorPtr and binds it.
func (n *NN) SetInput(ctx context.Context, mem ports.Memory, execCtx, index, tensorPtr uint32) Errno {
	return n.withSession(ctx, FuncSetInput, execCtx, func(s *session) error {
		t, err := abi.ReadTensor(mem, tensorPtr)
		if err != nil {
			return err
		}
		if !t.Type.Valid() {
			return Errorf(ErrnoInvalidArgument, "unknown tensor type %d", uint32(t.Type))
		}
		return s.SetInput(ctx, index, t)
	})
}

// Compute runs the session.
func (n *NN) Compute(ctx context.Context, _ ports.Memory, execCtx uint32) Errno {
	return n.withSession(ctx, FuncCompute, execCtx, func(s *session) error {
		return s.Compute(ctx)
	})
}

// GetOutput copies output index into the guest buffer and stores the byte
// count at outBytesWritten. An output larger than the buffer is too_large
// and nothing is written.
func (n *NN) GetOutput(ctx context.Context, mem ports.Memory, execCtx, index, outBuffer, outBufferMax, outBytesWritten uint32) Errno {
	return n.withSession(ctx, FuncGetOutput, execCtx, func(s *session) error {
		data, err := s.Output(ctx, index)
		if err != nil {
			return err
		}
		if uint64(len(data)) > uint64(outBufferMax) {
			return Errorf(ErrnoTooLarge, "output %d is %d bytes, buffer holds %d", index, len(data), outBufferMax)
		}
		if len(data) > 0 && !mem.Write(outBuffer, data) {
			return Errorf(ErrnoInvalidArgument, "output buffer 0x%x out of range", outBuffer)
		}
		if !mem.WriteUint32Le(outBytesWritten, uint32(len(data))) {
			return Errorf(ErrnoInvalidArgument, "bytes-written cell 0x%x out of range", outBytesWritten)
		}
		return nil
	})
}

func (n *NN) withSession(ctx context.Context, fn string, handle uint32, body func(*session) error) Errno {
	s, ok := n.contexts.Get(handle)
	if !ok {
		return ErrnoInvalidArgument
	}
	if !s.inUse.CompareAndSwap(false, true) {
		return ErrnoBusy
	}
	defer s.inUse.Store(false)

	if err := body(s); err != nil {
		return n.fail(ctx, fn, err)
	}
	return ErrnoSuccess
}

func (n *NN) fail(ctx context.Context, fn string, err error) Errno {
	errno := ErrnoOf(err)
	n.logger.DebugContext(ctx, "wasi-nn request rejected",
		slog.String("function", fn),
		slog.String("errno", errno.String()),
		slog.String("error", err.Error()))
	return errno
}

// Funcs describes the five inference functions for registration.
func (n *NN) Funcs() []Func {
	return []Func{
		{Name: FuncLoad, Params: 5, Handler: func(ctx context.Context, mem ports.Memory, p []uint32) Errno {
			return n.Load(ctx, mem, p[0], p[1], p[2], p[3], p[4])
		}},
		{Name: FuncInitExecutionContext, Params: 2, Handler: func(ctx context.Context, mem ports.Memory, p []uint32) Errno {
			return n.InitExecutionContext(ctx, mem, p[0], p[1])
		}},
		{Name: FuncSetInput, Params: 3, Handler: func(ctx context.Context, mem ports.Memory, p []uint32) Errno {
			return n.SetInput(ctx, mem, p[0], p[1], p[2])
		}},
		{Name: FuncCompute, Params: 1, Handler: func(ctx context.Context, mem ports.Memory, p []uint32) Errno {
			return n.Compute(ctx, mem, p[0])
		}},
		{Name: FuncGetOutput, Params: 5, Handler: func(ctx context.Context, mem ports.Memory, p []uint32) Errno {
			return n.GetOutput(ctx, mem, p[0], p[1], p[2], p[3], p[4])
		}},
	}
}

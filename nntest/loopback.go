package nntest

import (
	"context"

	wasinn "github.com/wasinn-dev/wasinn-sdk"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
)

// Compile-time interface compliance checks
var (
	_ ports.NNHost    = (*Loopback)(nil)
	_ ports.ImageHost = (*Loopback)(nil)
)

// Loopback serves guest calls with the real host functions, sharing one
// simulated memory between both sides.
type Loopback struct {
	Mem   *abi.SimMemory
	NN    *hostfuncs.NN
	Image *hostfuncs.Image
	ctx   context.Context
}

// NewLoopback connects nn and, optionally, im. A nil im makes the image
// entry points report unsupported_operation.
func NewLoopback(nn *hostfuncs.NN, im *hostfuncs.Image) *Loopback {
	return &Loopback{Mem: abi.NewSimMemory(0), NN: nn, Image: im, ctx: context.Background()}
}

// NewArena returns a per-call arena over the shared memory.
func (l *Loopback) NewArena() ports.Arena {
	return abi.NewSimArena(l.Mem)
}

// Client returns a guest client wired to the loopback.
func (l *Loopback) Client(opts ...wasinn.Option) *wasinn.Client {
	base := []wasinn.Option{wasinn.WithHost(l), wasinn.WithArenaFactory(l.NewArena)}
	return wasinn.NewClient(append(base, opts...)...)
}

// Load implements ports.NNHost.
func (l *Loopback) Load(builderPtr, builderLen, encoding, target, outGraph uint32) uint32 {
	return uint32(l.NN.Load(l.ctx, l.Mem, builderPtr, builderLen, encoding, target, outGraph))
}

// InitExecutionContext implements ports.NNHost.
func (l *Loopback) InitExecutionContext(graph, outContext uint32) uint32 {
	return uint32(l.NN.InitExecutionContext(l.ctx, l.Mem, graph, outContext))
}

// SetInput implements ports.NNHost.
func (l *Loopback) SetInput(context, index, tensorPtr uint32) uint32 {
	return uint32(l.NN.SetInput(l.ctx, l.Mem, context, index, tensorPtr))
}

// Compute implements ports.NNHost.
func (l *Loopback) Compute(context uint32) uint32 {
	return uint32(l.NN.Compute(l.ctx, l.Mem, context))
}

// GetOutput implements ports.NNHost.
func (l *Loopback) GetOutput(context, index, outBuffer, outBufferMax, outBytesWritten uint32) uint32 {
	return uint32(l.NN.GetOutput(l.ctx, l.Mem, context, index, outBuffer, outBufferMax, outBytesWritten))
}

// ImageToTensor implements ports.ImageHost.
func (l *Loopback) ImageToTensor(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax uint32) uint32 {
	if l.Image == nil {
		return uint32(hostfuncs.ErrnoUnsupportedOperation)
	}
	return uint32(l.Image.ImageToTensor(l.ctx, l.Mem, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax))
}

// ConvertImage implements ports.ImageHost.
func (l *Loopback) ConvertImage(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten uint32) uint32 {
	if l.Image == nil {
		return uint32(hostfuncs.ErrnoUnsupportedOperation)
	}
	return uint32(l.Image.ConvertImage(l.ctx, l.Mem, pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten))
}

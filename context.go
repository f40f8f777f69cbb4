package wasinn

import (
	"fmt"
	"log/slog"

	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
)

// ExecutionContext is a host-side inference session bound to a Graph.
// It is not safe for concurrent use.
type ExecutionContext struct {
	_ noCopy

	graph  *Graph
	handle uint32
}

// Handle returns the host-assigned context handle.
func (e *ExecutionContext) Handle() uint32 { return e.handle }

// Graph returns the graph the context was created from.
func (e *ExecutionContext) Graph() *Graph { return e.graph }

func (e *ExecutionContext) String() string {
	return fmt.Sprintf("ExecutionContext#%d(%s)", e.handle, e.graph)
}

// SetInput binds tensor to input index. The tensor is described to the host
// as-is; element count and byte length are not cross-checked.
func (e *ExecutionContext) SetInput(index uint32, tensor Tensor) error {
	c := e.graph.client
	a := c.newArena()
	defer a.Release()

	ptr, _, err := abi.PlaceTensor(a, tensor)
	if err != nil {
		return fmt.Errorf("placing input tensor: %w", err)
	}

	code := c.host.SetInput(e.handle, index, ptr)
	return c.check(OpSetInput, code, slog.Uint64("context", uint64(e.handle)), slog.Uint64("index", uint64(index)))
}

// Compute runs inference over the bound inputs.
func (e *ExecutionContext) Compute() error {
	c := e.graph.client
	code := c.host.Compute(e.handle)
	return c.check(OpCompute, code, slog.Uint64("context", uint64(e.handle)))
}

// GetOutput copies output index into buf. buf is caller-owned and must be
// large enough for the whole output; the host reports how many bytes it
// wrote, which the returned OutputTensor exposes via Written.
func (e *ExecutionContext) GetOutput(index uint32, buf []byte) (OutputTensor, error) {
	c := e.graph.client
	written, err := e.getOutput(c, index, buf)
	if err != nil {
		return OutputTensor{}, err
	}
	return newOutputTensor(buf, written), nil
}

func (e *ExecutionContext) getOutput(c *Client, index uint32, buf []byte) (uint32, error) {
	a := c.newArena()
	defer a.Release()

	ptr, err := a.Place(buf)
	if err != nil {
		return 0, fmt.Errorf("placing output buffer: %w", err)
	}
	cell, err := a.Cell()
	if err != nil {
		return 0, fmt.Errorf("reserving bytes-written cell: %w", err)
	}

	code := c.host.GetOutput(e.handle, index, ptr, uint32(len(buf)), cell)
	if err := c.check(OpGetOutput, code, slog.Uint64("context", uint64(e.handle)), slog.Uint64("index", uint64(index))); err != nil {
		return 0, err
	}

	written, err := a.Uint32(cell)
	if err != nil {
		return 0, fmt.Errorf("reading bytes written: %w", err)
	}
	return written, nil
}

package wasinn

import (
	"fmt"
	"log/slog"

	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
)

// Graph is a model loaded by the host. The handle is host-assigned and
// opaque; the guest never frees it.
type Graph struct {
	_ noCopy

	client   *Client
	handle   uint32
	encoding GraphEncoding
	target   ExecutionTarget
}

// Handle returns the host-assigned graph handle.
func (g *Graph) Handle() uint32 { return g.handle }

// Encoding returns the encoding the graph was loaded with.
func (g *Graph) Encoding() GraphEncoding { return g.encoding }

// Target returns the execution target the graph was loaded for.
func (g *Graph) Target() ExecutionTarget { return g.target }

func (g *Graph) String() string {
	return fmt.Sprintf("Graph#%d", g.handle)
}

// Load passes the ordered model blobs to the host and returns the resulting
// graph. The blobs are only borrowed for the duration of the call.
func (c *Client) Load(blobs [][]byte, encoding GraphEncoding, target ExecutionTarget) (*Graph, error) {
	a := c.newArena()
	defer a.Release()

	ptr, _, err := abi.PlaceBlobSequence(a, blobs)
	if err != nil {
		return nil, fmt.Errorf("placing graph builder: %w", err)
	}
	cell, err := a.Cell()
	if err != nil {
		return nil, fmt.Errorf("reserving graph handle: %w", err)
	}

	code := c.host.Load(ptr, uint32(len(blobs)), uint32(encoding), uint32(target), cell)
	if err := c.check(OpLoad, code, slog.Int("blobs", len(blobs)), slog.String("encoding", encoding.String())); err != nil {
		return nil, err
	}

	handle, err := a.Uint32(cell)
	if err != nil {
		return nil, fmt.Errorf("reading graph handle: %w", err)
	}
	return &Graph{client: c, handle: handle, encoding: encoding, target: target}, nil
}

// InitExecutionContext asks the host for a new execution context bound to
// this graph. Each call yields an independent context.
func (g *Graph) InitExecutionContext() (*ExecutionContext, error) {
	c := g.client
	a := c.newArena()
	defer a.Release()

	cell, err := a.Cell()
	if err != nil {
		return nil, fmt.Errorf("reserving context handle: %w", err)
	}

	code := c.host.InitExecutionContext(g.handle, cell)
	if err := c.check(OpInitExecutionContext, code, slog.Uint64("graph", uint64(g.handle))); err != nil {
		return nil, err
	}

	handle, err := a.Uint32(cell)
	if err != nil {
		return nil, fmt.Errorf("reading context handle: %w", err)
	}
	return &ExecutionContext{graph: g, handle: handle}, nil
}

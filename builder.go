package wasinn

import (
	"os"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
)

// GraphBuilder collects load parameters. The zero value is not usable; start
// from NewGraphBuilder, which defaults to OpenVINO on CPU.
type GraphBuilder struct {
	client   *Client
	encoding GraphEncoding
	target   ExecutionTarget
}

// NewGraphBuilder returns a builder bound to the default client.
func NewGraphBuilder() *GraphBuilder {
	return defaultClient.NewGraphBuilder()
}

// NewGraphBuilder returns a builder bound to c.
func (c *Client) NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{client: c, encoding: EncodingOpenVINO, target: TargetCPU}
}

// WithEncoding sets the graph encoding.
func (b *GraphBuilder) WithEncoding(e GraphEncoding) *GraphBuilder {
	b.encoding = e
	return b
}

// WithTarget sets the execution target.
func (b *GraphBuilder) WithTarget(t ExecutionTarget) *GraphBuilder {
	b.target = t
	return b
}

// CPU is shorthand for WithTarget(TargetCPU).
func (b *GraphBuilder) CPU() *GraphBuilder { return b.WithTarget(TargetCPU) }

// GPU is shorthand for WithTarget(TargetGPU).
func (b *GraphBuilder) GPU() *GraphBuilder { return b.WithTarget(TargetGPU) }

// TPU is shorthand for WithTarget(TargetTPU).
func (b *GraphBuilder) TPU() *GraphBuilder { return b.WithTarget(TargetTPU) }

// BuildFromBytes loads a graph from in-memory blobs.
func (b *GraphBuilder) BuildFromBytes(blobs ...[]byte) (*Graph, error) {
	return b.client.Load(blobs, b.encoding, b.target)
}

// BuildFromFiles reads each file in order and loads the graph from their
// contents. OpenVINO expects the .xml description followed by the .bin
// weights.
func (b *GraphBuilder) BuildFromFiles(paths ...string) (*Graph, error) {
	blobs := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, &nnerrors.FileError{Err: err, Path: p}
		}
		blobs = append(blobs, data)
	}
	return b.BuildFromBytes(blobs...)
}

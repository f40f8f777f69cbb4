package ports

import (
	"context"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
)

// Backend is the inference engine behind the host side of wasi_ephemeral_nn.
// Model execution itself lives outside this repository; implementations
// adapt a real runtime (or, for tests, the echo backend) to this interface.
type Backend interface {
	// Load builds a model from the ordered blobs supplied by the guest.
	Load(ctx context.Context, blobs [][]byte, encoding entities.GraphEncoding, target entities.ExecutionTarget) (Model, error)
}

// Model is a loaded graph.
type Model interface {
	// NewSession creates an execution context bound to this model.
	NewSession(ctx context.Context) (Session, error)
}

// Session holds the inputs and outputs of one inference.
type Session interface {
	SetInput(ctx context.Context, index uint32, tensor entities.Tensor) error
	Compute(ctx context.Context) error
	// Output returns the bytes of output index. The host copies them into
	// the guest buffer; the slice is not retained.
	Output(ctx context.Context, index uint32) ([]byte, error)
}

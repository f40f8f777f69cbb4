//go:build wasip1

package wasm

import (
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
)

// Compile-time interface compliance checks
var (
	_ ports.NNHost    = ImportHost{}
	_ ports.ImageHost = ImportHost{}
)

// ImportHost forwards every call to the wasi_ephemeral_nn imports.
// The image functions are only resolvable when the embedding host provides
// them; a module that calls one against a host without it fails to link.
type ImportHost struct{}

// NewImportHost returns the host bound to the module's imports.
func NewImportHost() ImportHost {
	return ImportHost{}
}

// Load calls wasi_ephemeral_nn.load.
func (ImportHost) Load(builderPtr, builderLen, encoding, target, outGraph uint32) uint32 {
	return nn_load(builderPtr, builderLen, encoding, target, outGraph)
}

// InitExecutionContext calls wasi_ephemeral_nn.init_execution_context.
func (ImportHost) InitExecutionContext(graph, outContext uint32) uint32 {
	return nn_init_execution_context(graph, outContext)
}

// SetInput calls wasi_ephemeral_nn.set_input.
func (ImportHost) SetInput(context, index, tensorPtr uint32) uint32 {
	return nn_set_input(context, index, tensorPtr)
}

// Compute calls wasi_ephemeral_nn.compute.
func (ImportHost) Compute(context uint32) uint32 {
	return nn_compute(context)
}

// GetOutput calls wasi_ephemeral_nn.get_output.
func (ImportHost) GetOutput(context, index, outBuffer, outBufferMax, outBytesWritten uint32) uint32 {
	return nn_get_output(context, index, outBuffer, outBufferMax, outBytesWritten)
}

// ImageToTensor calls wasi_ephemeral_nn.image_to_tensor.
func (ImportHost) ImageToTensor(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax uint32) uint32 {
	return nn_image_to_tensor(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax)
}

// ConvertImage calls wasi_ephemeral_nn.convert_image.
func (ImportHost) ConvertImage(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten uint32) uint32 {
	return nn_convert_image(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten)
}

// NewArena returns a per-call arena over the module's linear memory.
func NewArena() ports.Arena {
	return abi.NewLinearArena()
}

//go:build wasip1

// Package wasm binds the wasi_ephemeral_nn host imports for wasip1 builds.
package wasm

// The signatures below are the wasi_ephemeral_nn wire contract: every
// parameter is an i32 and every function returns an i32 status code.
// Parameter names prefixed with out are addresses the host writes to.

//go:wasmimport wasi_ephemeral_nn load
//nolint:revive // snake_case matches the import names
func nn_load(builderPtr, builderLen, encoding, target, outGraph uint32) uint32

//go:wasmimport wasi_ephemeral_nn init_execution_context
//nolint:revive
func nn_init_execution_context(graph, outContext uint32) uint32

//go:wasmimport wasi_ephemeral_nn set_input
//nolint:revive
func nn_set_input(context, index, tensorPtr uint32) uint32

//go:wasmimport wasi_ephemeral_nn compute
//nolint:revive
func nn_compute(context uint32) uint32

//go:wasmimport wasi_ephemeral_nn get_output
//nolint:revive
func nn_get_output(context, index, outBuffer, outBufferMax, outBytesWritten uint32) uint32

//go:wasmimport wasi_ephemeral_nn image_to_tensor
//nolint:revive
func nn_image_to_tensor(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax uint32) uint32

//go:wasmimport wasi_ephemeral_nn convert_image
//nolint:revive
func nn_convert_image(pathPtr, pathLen, width, height, precision, outBuffer, outBufferMax, outBytesWritten uint32) uint32

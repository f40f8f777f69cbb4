// Package entities provides the value types shared by the guest bindings and
// the host implementation of the wasi_ephemeral_nn interface.
//
// The numeric values of GraphEncoding, ExecutionTarget and TensorType are part
// of the wire contract with the host and must never be renumbered.
package entities

//go:build !wasip1

// Package wasm binds the wasi_ephemeral_nn host imports for wasip1 builds.
// On native builds the imports do not exist and every call panics; tests
// inject a stub host instead.
package wasm

import (
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

// ImportHost stub for native builds. Every method panics.
type ImportHost struct{}

// NewImportHost returns the native stub.
func NewImportHost() ImportHost {
	return ImportHost{}
}

const notAvailable = "wasi_ephemeral_nn imports not available in native build"

// Load implements ports.NNHost; not available natively.
func (ImportHost) Load(_, _, _, _, _ uint32) uint32 {
	panic(notAvailable)
}

// InitExecutionContext implements ports.NNHost; not available natively.
func (ImportHost) InitExecutionContext(_, _ uint32) uint32 {
	panic(notAvailable)
}

// SetInput implements ports.NNHost; not available natively.
func (ImportHost) SetInput(_, _, _ uint32) uint32 {
	panic(notAvailable)
}

// Compute implements ports.NNHost; not available natively.
func (ImportHost) Compute(_ uint32) uint32 {
	panic(notAvailable)
}

// GetOutput implements ports.NNHost; not available natively.
func (ImportHost) GetOutput(_, _, _, _, _ uint32) uint32 {
	panic(notAvailable)
}

// ImageToTensor implements ports.ImageHost; not available natively.
func (ImportHost) ImageToTensor(_, _, _, _, _, _, _ uint32) uint32 {
	panic(notAvailable)
}

// ConvertImage implements ports.ImageHost; not available natively.
func (ImportHost) ConvertImage(_, _, _, _, _, _, _, _ uint32) uint32 {
	panic(notAvailable)
}

// NewArena is not available natively; tests use abi.SimArena.
func NewArena() ports.Arena {
	panic(notAvailable)
}

//go:build wasip1

package abi

import (
	"runtime"
	"unsafe"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

var _ ports.Arena = (*LinearArena)(nil)

// LinearArena hands the host the real linear-memory addresses of Go-owned
// slices. Go's collector does not move objects, so an address stays valid
// while the arena keeps a reference to the slice.
type LinearArena struct {
	pins  [][]byte
	cells map[uint32]*uint32
}

// NewLinearArena starts a per-call arena over the module's own memory.
func NewLinearArena() *LinearArena {
	return &LinearArena{cells: make(map[uint32]*uint32)}
}

// Place implements ports.Arena. The host writes straight into buf.
func (a *LinearArena) Place(buf []byte) (uint32, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	a.pins = append(a.pins, buf)
	//nolint:gosec // G103: wasm32 linear memory address of a pinned slice
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf)))), nil
}

// Cell implements ports.Arena.
func (a *LinearArena) Cell() (uint32, error) {
	cell := new(uint32)
	//nolint:gosec // G103: wasm32 linear memory address of a pinned cell
	addr := uint32(uintptr(unsafe.Pointer(cell)))
	a.cells[addr] = cell
	return addr, nil
}

// Uint32 implements ports.Arena.
func (a *LinearArena) Uint32(addr uint32) (uint32, error) {
	cell, ok := a.cells[addr]
	if !ok {
		return 0, &nnerrors.MemoryError{Op: "read", Address: addr, Requested: 4}
	}
	return *cell, nil
}

// Release implements ports.Arena.
func (a *LinearArena) Release() {
	runtime.KeepAlive(a.pins)
	a.pins = nil
	clear(a.cells)
}

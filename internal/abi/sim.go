package abi

import (
	"encoding/binary"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

// DefaultSimMemoryLimit is the capacity of a SimMemory created with limit 0.
const DefaultSimMemoryLimit = 64 * 1024 * 1024

// simBase is the first address handed out, so that 0 is never a valid pointer.
const simBase = 16

var _ ports.Memory = (*SimMemory)(nil)

// SimMemory is a growable stand-in for a wasm32 linear memory. It lets the
// guest bindings run natively against a stubbed or in-process host.
// It is not safe for concurrent use, matching the single-threaded guest.
type SimMemory struct {
	buf   []byte
	next  uint32
	limit uint32
}

// NewSimMemory creates an empty simulated memory of at most limit bytes.
func NewSimMemory(limit uint32) *SimMemory {
	if limit == 0 {
		limit = DefaultSimMemoryLimit
	}
	return &SimMemory{buf: make([]byte, simBase), next: simBase, limit: limit}
}

// Alloc bump-allocates size zeroed bytes aligned to align.
func (m *SimMemory) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	start := (uint64(m.next) + uint64(align) - 1) &^ (uint64(align) - 1)
	end := start + uint64(size)
	if end > uint64(m.limit) {
		return 0, &nnerrors.MemoryError{Op: "alloc", Requested: int(size), Limit: int(m.limit) - int(m.next)}
	}
	if end > uint64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	clear(m.buf[start:end])
	m.next = uint32(end)
	return uint32(start), nil
}

// Mark returns the current allocation watermark.
func (m *SimMemory) Mark() uint32 {
	return m.next
}

// Rewind frees every allocation made after mark.
func (m *SimMemory) Rewind(mark uint32) {
	if mark >= simBase && mark <= m.next {
		m.next = mark
	}
}

// Size returns the number of addressable bytes.
func (m *SimMemory) Size() uint32 {
	return uint32(len(m.buf))
}

// Read returns a view of byteCount bytes at offset.
func (m *SimMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	if !m.inRange(offset, byteCount) {
		return nil, false
	}
	return m.buf[offset : offset+byteCount : offset+byteCount], true
}

// Write copies v into memory at offset.
func (m *SimMemory) Write(offset uint32, v []byte) bool {
	if !m.inRange(offset, uint32(len(v))) {
		return false
	}
	copy(m.buf[offset:], v)
	return true
}

// ReadUint32Le reads a little-endian uint32 at offset.
func (m *SimMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.inRange(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.buf[offset:]), true
}

// WriteUint32Le writes a little-endian uint32 at offset.
func (m *SimMemory) WriteUint32Le(offset, v uint32) bool {
	if !m.inRange(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.buf[offset:], v)
	return true
}

func (m *SimMemory) inRange(offset, n uint32) bool {
	return uint64(offset)+uint64(n) <= uint64(len(m.buf))
}

var _ ports.Arena = (*SimArena)(nil)

type placement struct {
	buf  []byte
	addr uint32
}

// SimArena places values into a SimMemory by copying them. Release copies
// the placed regions back so that host writes reach the caller's slices,
// then rewinds the memory to where the arena started.
type SimArena struct {
	mem    *SimMemory
	placed []placement
	mark   uint32
}

// NewSimArena starts a per-call arena on mem.
func NewSimArena(mem *SimMemory) *SimArena {
	return &SimArena{mem: mem, mark: mem.Mark()}
}

// Place implements ports.Arena.
func (a *SimArena) Place(buf []byte) (uint32, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	addr, err := a.mem.Alloc(uint32(len(buf)), 4)
	if err != nil {
		return 0, err
	}
	a.mem.Write(addr, buf)
	a.placed = append(a.placed, placement{addr: addr, buf: buf})
	return addr, nil
}

// Cell implements ports.Arena.
func (a *SimArena) Cell() (uint32, error) {
	return a.mem.Alloc(4, 4)
}

// Uint32 implements ports.Arena.
func (a *SimArena) Uint32(addr uint32) (uint32, error) {
	v, ok := a.mem.ReadUint32Le(addr)
	if !ok {
		return 0, &nnerrors.MemoryError{Op: "read", Address: addr, Requested: 4}
	}
	return v, nil
}

// Release implements ports.Arena.
func (a *SimArena) Release() {
	for _, p := range a.placed {
		if view, ok := a.mem.Read(p.addr, uint32(len(p.buf))); ok {
			copy(p.buf, view)
		}
	}
	a.placed = nil
	a.mem.Rewind(a.mark)
}

package ports

// Memory is a view of a little-endian 32-bit linear address space.
// wazero's api.Memory satisfies it, as does the simulated memory used in tests.
type Memory interface {
	// Size returns the size in bytes available.
	Size() uint32

	// Read returns a view of byteCount bytes at offset, or false if out of range.
	// Writes to the returned slice are visible in memory.
	Read(offset, byteCount uint32) ([]byte, bool)

	// Write copies v to memory at offset, or returns false if out of range.
	Write(offset uint32, v []byte) bool

	// ReadUint32Le reads a little-endian uint32 at offset.
	ReadUint32Le(offset uint32) (uint32, bool)

	// WriteUint32Le writes a little-endian uint32 at offset.
	WriteUint32Le(offset, v uint32) bool
}

// Arena hands out host-visible addresses for the duration of one host call.
// A fresh Arena is used per call so that no out-parameter cell is ever shared
// between calls.
type Arena interface {
	// Place makes buf addressable by the host and returns its address.
	// An empty buf yields address 0. Host writes into the region become
	// visible in buf no later than Release.
	Place(buf []byte) (uint32, error)

	// Cell reserves a zeroed 4-byte out-parameter and returns its address.
	Cell() (uint32, error)

	// Uint32 reads a cell previously returned by Cell.
	Uint32(addr uint32) (uint32, error)

	// Release publishes host writes into placed buffers and drops every
	// reference held by the arena. The arena must not be used afterwards.
	Release()
}

package abi

import (
	"encoding/binary"
	"fmt"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

const (
	// BlobRefSize is the encoded size of one graph-builder entry.
	BlobRefSize = 8

	// TensorDescriptorSize is the encoded size of a tensor descriptor.
	TensorDescriptorSize = 20

	// TensorDescriptorWords is the number of 32-bit fields in a descriptor.
	TensorDescriptorWords = 5
)

// BlobRef is one entry of the graph-builder array passed to load.
type BlobRef struct {
	Ptr uint32
	Len uint32
}

// TensorDescriptor is the tensor record read by set_input. The field order is
// fixed by the host ABI: dims pointer, dims length (in elements), type tag,
// data pointer, data length (in bytes).
type TensorDescriptor struct {
	DimsPtr uint32
	DimsLen uint32
	Type    uint32
	DataPtr uint32
	DataLen uint32
}

// Words returns the descriptor as its five ABI words.
func (d TensorDescriptor) Words() [TensorDescriptorWords]uint32 {
	return [TensorDescriptorWords]uint32{d.DimsPtr, d.DimsLen, d.Type, d.DataPtr, d.DataLen}
}

// Bytes encodes the descriptor little-endian.
func (d TensorDescriptor) Bytes() []byte {
	words := d.Words()
	return encodeWords(words[:])
}

// DecodeTensorDescriptor parses a 20-byte little-endian descriptor.
func DecodeTensorDescriptor(b []byte) (TensorDescriptor, error) {
	if len(b) < TensorDescriptorSize {
		return TensorDescriptor{}, fmt.Errorf("abi: tensor descriptor needs %d bytes, got %d", TensorDescriptorSize, len(b))
	}
	return TensorDescriptor{
		DimsPtr: binary.LittleEndian.Uint32(b[0:]),
		DimsLen: binary.LittleEndian.Uint32(b[4:]),
		Type:    binary.LittleEndian.Uint32(b[8:]),
		DataPtr: binary.LittleEndian.Uint32(b[12:]),
		DataLen: binary.LittleEndian.Uint32(b[16:]),
	}, nil
}

// EncodeBlobSequence places every blob and returns their (ptr, len) entries
// in input order. An empty blob gets a zero pointer.
func EncodeBlobSequence(a ports.Arena, blobs [][]byte) ([]BlobRef, error) {
	refs := make([]BlobRef, len(blobs))
	for i, blob := range blobs {
		ptr, err := a.Place(blob)
		if err != nil {
			return nil, fmt.Errorf("abi: placing blob %d: %w", i, err)
		}
		refs[i] = BlobRef{Ptr: ptr, Len: uint32(len(blob))}
	}
	return refs, nil
}

// FlattenBlobRefs returns the 2*len(refs) words ptr0, len0, ptr1, len1, ...
func FlattenBlobRefs(refs []BlobRef) []uint32 {
	words := make([]uint32, 0, 2*len(refs))
	for _, r := range refs {
		words = append(words, r.Ptr, r.Len)
	}
	return words
}

// PlaceBlobSequence encodes blobs and places the builder array itself.
// It returns the array address and the entries it contains.
func PlaceBlobSequence(a ports.Arena, blobs [][]byte) (uint32, []BlobRef, error) {
	refs, err := EncodeBlobSequence(a, blobs)
	if err != nil {
		return 0, nil, err
	}
	ptr, err := a.Place(encodeWords(FlattenBlobRefs(refs)))
	if err != nil {
		return 0, nil, fmt.Errorf("abi: placing graph builder array: %w", err)
	}
	return ptr, refs, nil
}

// EncodeTensorDescriptor places dims and data and returns the descriptor
// pointing at them.
func EncodeTensorDescriptor(a ports.Arena, dims []uint32, typ entities.TensorType, data []byte) (TensorDescriptor, error) {
	dimsPtr, err := a.Place(encodeWords(dims))
	if err != nil {
		return TensorDescriptor{}, fmt.Errorf("abi: placing tensor dimensions: %w", err)
	}
	dataPtr, err := a.Place(data)
	if err != nil {
		return TensorDescriptor{}, fmt.Errorf("abi: placing tensor data: %w", err)
	}
	return TensorDescriptor{
		DimsPtr: dimsPtr,
		DimsLen: uint32(len(dims)),
		Type:    uint32(typ),
		DataPtr: dataPtr,
		DataLen: uint32(len(data)),
	}, nil
}

// PlaceTensor encodes t and places its descriptor, returning the descriptor
// address for set_input.
func PlaceTensor(a ports.Arena, t entities.Tensor) (uint32, TensorDescriptor, error) {
	desc, err := EncodeTensorDescriptor(a, t.Dimensions, t.Type, t.Data)
	if err != nil {
		return 0, TensorDescriptor{}, err
	}
	ptr, err := a.Place(desc.Bytes())
	if err != nil {
		return 0, TensorDescriptor{}, fmt.Errorf("abi: placing tensor descriptor: %w", err)
	}
	return ptr, desc, nil
}

// DecodeBlobSequence reads count builder entries starting at ptr.
func DecodeBlobSequence(mem ports.Memory, ptr, count uint32) ([]BlobRef, error) {
	if uint64(count)*BlobRefSize > uint64(mem.Size()) {
		return nil, &nnerrors.MemoryError{Op: "read", Address: ptr, Requested: int(count) * BlobRefSize}
	}
	raw, err := read(mem, ptr, count*BlobRefSize)
	if err != nil {
		return nil, err
	}
	refs := make([]BlobRef, count)
	for i := range refs {
		off := i * BlobRefSize
		refs[i] = BlobRef{
			Ptr: binary.LittleEndian.Uint32(raw[off:]),
			Len: binary.LittleEndian.Uint32(raw[off+4:]),
		}
	}
	return refs, nil
}

// ReadBlobs copies out every blob referenced by the builder array at ptr.
// maxBytes bounds the combined size; 0 means unbounded.
func ReadBlobs(mem ports.Memory, ptr, count uint32, maxBytes uint64) ([][]byte, error) {
	refs, err := DecodeBlobSequence(mem, ptr, count)
	if err != nil {
		return nil, err
	}
	var total uint64
	for _, r := range refs {
		total += uint64(r.Len)
	}
	if maxBytes > 0 && total > maxBytes {
		return nil, &nnerrors.MemoryError{Op: "alloc", Requested: int(total), Limit: int(maxBytes)}
	}
	blobs := make([][]byte, len(refs))
	for i, r := range refs {
		b, err := readCopy(mem, r.Ptr, r.Len)
		if err != nil {
			return nil, fmt.Errorf("abi: blob %d: %w", i, err)
		}
		blobs[i] = b
	}
	return blobs, nil
}

// ReadTensor decodes the descriptor at ptr and copies out dims and data.
func ReadTensor(mem ports.Memory, ptr uint32) (entities.Tensor, error) {
	raw, err := read(mem, ptr, TensorDescriptorSize)
	if err != nil {
		return entities.Tensor{}, err
	}
	desc, err := DecodeTensorDescriptor(raw)
	if err != nil {
		return entities.Tensor{}, err
	}
	if uint64(desc.DimsLen)*4 > uint64(mem.Size()) {
		return entities.Tensor{}, &nnerrors.MemoryError{Op: "read", Address: desc.DimsPtr, Requested: int(desc.DimsLen) * 4}
	}
	dimsRaw, err := read(mem, desc.DimsPtr, desc.DimsLen*4)
	if err != nil {
		return entities.Tensor{}, fmt.Errorf("abi: tensor dimensions: %w", err)
	}
	data, err := readCopy(mem, desc.DataPtr, desc.DataLen)
	if err != nil {
		return entities.Tensor{}, fmt.Errorf("abi: tensor data: %w", err)
	}
	return entities.Tensor{
		Dimensions: decodeWords(dimsRaw),
		Type:       entities.TensorType(desc.Type),
		Data:       data,
	}, nil
}

// EncodeWords encodes 32-bit words little-endian.
func EncodeWords(words []uint32) []byte {
	return encodeWords(words)
}

func encodeWords(words []uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

func decodeWords(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out
}

func read(mem ports.Memory, ptr, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	b, ok := mem.Read(ptr, n)
	if !ok {
		return nil, &nnerrors.MemoryError{Op: "read", Address: ptr, Requested: int(n)}
	}
	return b, nil
}

func readCopy(mem ports.Memory, ptr, n uint32) ([]byte, error) {
	b, err := read(mem, ptr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

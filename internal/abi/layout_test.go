package abi

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
)

func TestTensorDescriptorLayout(t *testing.T) {
	var d TensorDescriptor
	assert.Equal(t, uintptr(TensorDescriptorSize), unsafe.Sizeof(d))
	assert.Equal(t, uintptr(0), unsafe.Offsetof(d.DimsPtr))
	assert.Equal(t, uintptr(4), unsafe.Offsetof(d.DimsLen))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(d.Type))
	assert.Equal(t, uintptr(12), unsafe.Offsetof(d.DataPtr))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(d.DataLen))

	var r BlobRef
	assert.Equal(t, uintptr(BlobRefSize), unsafe.Sizeof(r))
	assert.Equal(t, uintptr(4), unsafe.Offsetof(r.Len))
}

func TestTensorDescriptorBytes(t *testing.T) {
	d := TensorDescriptor{DimsPtr: 0x100, DimsLen: 4, Type: 1, DataPtr: 0x200, DataLen: 602112}
	b := d.Bytes()
	require.Len(t, b, TensorDescriptorSize)

	for i, want := range d.Words() {
		assert.Equal(t, want, binary.LittleEndian.Uint32(b[4*i:]), "word %d", i)
	}

	decoded, err := DecodeTensorDescriptor(b)
	require.NoError(t, err)
	assert.Equal(t, d, decoded)

	_, err = DecodeTensorDescriptor(b[:19])
	assert.Error(t, err)
}

func TestEncodeBlobSequence(t *testing.T) {
	mem := NewSimMemory(0)
	arena := NewSimArena(mem)
	defer arena.Release()

	blobs := [][]byte{[]byte("topology"), {}, []byte("weights!!")}
	refs, err := EncodeBlobSequence(arena, blobs)
	require.NoError(t, err)
	require.Len(t, refs, len(blobs))

	words := FlattenBlobRefs(refs)
	require.Len(t, words, 2*len(blobs))
	for i, blob := range blobs {
		assert.Equal(t, refs[i].Ptr, words[2*i])
		assert.Equal(t, uint32(len(blob)), words[2*i+1])
		if len(blob) == 0 {
			assert.Zero(t, refs[i].Ptr)
			continue
		}
		got, ok := mem.Read(refs[i].Ptr, refs[i].Len)
		require.True(t, ok)
		assert.Equal(t, blob, got)
	}
}

func TestEncodeBlobSequence_PreservesOrder(t *testing.T) {
	arena := NewSimArena(NewSimMemory(0))
	defer arena.Release()

	refs, err := EncodeBlobSequence(arena, [][]byte{{1}, {2, 2}, {3, 3, 3}})
	require.NoError(t, err)
	assert.Less(t, refs[0].Ptr, refs[1].Ptr)
	assert.Less(t, refs[1].Ptr, refs[2].Ptr)
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{refs[0].Len, refs[1].Len, refs[2].Len})
}

func TestPlaceBlobSequence_RoundTrip(t *testing.T) {
	mem := NewSimMemory(0)
	arena := NewSimArena(mem)
	defer arena.Release()

	blobs := [][]byte{[]byte("<xml/>"), []byte{0xde, 0xad, 0xbe, 0xef}}
	ptr, refs, err := PlaceBlobSequence(arena, blobs)
	require.NoError(t, err)

	decoded, err := DecodeBlobSequence(mem, ptr, uint32(len(blobs)))
	require.NoError(t, err)
	if diff := cmp.Diff(refs, decoded); diff != "" {
		t.Errorf("blob refs mismatch (-want +got):\n%s", diff)
	}

	read, err := ReadBlobs(mem, ptr, uint32(len(blobs)), 0)
	require.NoError(t, err)
	assert.Equal(t, blobs, read)

	_, err = ReadBlobs(mem, ptr, uint32(len(blobs)), 5)
	var memErr *nnerrors.MemoryError
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, "alloc", memErr.Op)
}

func TestEncodeTensorDescriptor_FiveWordsRegardlessOfShape(t *testing.T) {
	tests := []struct {
		name string
		dims []uint32
		data []byte
	}{
		{"scalar", nil, []byte{1, 0, 0, 0}},
		{"vector", []uint32{3}, make([]byte, 12)},
		{"image", []uint32{1, 3, 224, 224}, make([]byte, 3*224*224*4)},
		{"empty data", []uint32{0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewSimMemory(0)
			arena := NewSimArena(mem)
			defer arena.Release()

			desc, err := EncodeTensorDescriptor(arena, tt.dims, entities.TensorF32, tt.data)
			require.NoError(t, err)

			words := desc.Words()
			assert.Len(t, words, TensorDescriptorWords)
			assert.Equal(t, uint32(len(tt.dims)), words[1])
			assert.Equal(t, uint32(entities.TensorF32), words[2])
			assert.Equal(t, uint32(len(tt.data)), words[4])
			assert.Len(t, desc.Bytes(), TensorDescriptorSize)
		})
	}
}

func TestPlaceTensor_ReadTensorRoundTrip(t *testing.T) {
	mem := NewSimMemory(0)
	arena := NewSimArena(mem)
	defer arena.Release()

	in := entities.TensorFromFloat32s([]uint32{1, 2, 2}, []float32{0.5, 1, -1, 8})
	ptr, desc, err := PlaceTensor(arena, in)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), desc.DimsLen)
	assert.Equal(t, uint32(16), desc.DataLen)

	out, err := ReadTensor(mem, ptr)
	require.NoError(t, err)
	assert.Equal(t, in.Dimensions, out.Dimensions)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.Data, out.Data)
}

func TestReadTensor_OutOfRange(t *testing.T) {
	mem := NewSimMemory(0)
	arena := NewSimArena(mem)
	defer arena.Release()

	bogus := TensorDescriptor{DimsPtr: 0xFFFF0000, DimsLen: 2, Type: 1, DataPtr: 0, DataLen: 0}
	ptr, err := arena.Place(bogus.Bytes())
	require.NoError(t, err)

	_, err = ReadTensor(mem, ptr)
	var memErr *nnerrors.MemoryError
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, "read", memErr.Op)
}

func TestDecodeBlobSequence_HugeCount(t *testing.T) {
	mem := NewSimMemory(0)
	_, err := DecodeBlobSequence(mem, 16, 0x40000000)
	assert.Error(t, err)
}

package entities

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// Tensor is a shape, an element type and the raw bytes of the elements.
//
// Data is expected to hold ElementCount()*Type.ByteWidth() bytes, but nothing
// in the marshaling layer enforces it. Callers that want the check can use
// Validate.
type Tensor struct {
	Dimensions []uint32
	Type       TensorType
	Data       []byte
}

// NewTensor builds a tensor without copying dims or data.
func NewTensor(dims []uint32, typ TensorType, data []byte) Tensor {
	return Tensor{Dimensions: dims, Type: typ, Data: data}
}

// TensorFromFloat32s encodes values little-endian into a new f32 tensor.
func TensorFromFloat32s(dims []uint32, values []float32) Tensor {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return NewTensor(dims, TensorF32, data)
}

// TensorFromInt32s encodes values little-endian into a new i32 tensor.
func TensorFromInt32s(dims []uint32, values []int32) Tensor {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
	}
	return NewTensor(dims, TensorI32, data)
}

// TensorFromFloat16s narrows values to IEEE 754 half precision.
func TensorFromFloat16s(dims []uint32, values []float32) Tensor {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[2*i:], float16.Fromfloat32(v).Bits())
	}
	return NewTensor(dims, TensorF16, data)
}

// ElementCount is the product of the dimensions. A rank-0 tensor has one element.
func (t Tensor) ElementCount() uint64 {
	n := uint64(1)
	for _, d := range t.Dimensions {
		n *= uint64(d)
	}
	return n
}

// ExpectedByteLen is the data length implied by the shape and element type.
func (t Tensor) ExpectedByteLen() uint64 {
	return t.ElementCount() * uint64(t.Type.ByteWidth())
}

// Validate checks the tensor type and that len(Data) matches the shape.
func (t Tensor) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("tensor: invalid element type %d", uint32(t.Type))
	}
	if want := t.ExpectedByteLen(); uint64(len(t.Data)) != want {
		return fmt.Errorf("tensor: data is %d bytes, shape %v of %s needs %d", len(t.Data), t.Dimensions, t.Type, want)
	}
	return nil
}

// Bytes returns a copy of the raw element bytes.
func (t Tensor) Bytes() []byte {
	out := make([]byte, len(t.Data))
	copy(out, t.Data)
	return out
}

// Float32s reinterprets Data as little-endian IEEE 754 singles.
// Trailing bytes that do not form a whole element are ignored.
func (t Tensor) Float32s() []float32 {
	out := make([]float32, len(t.Data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.Data[4*i:]))
	}
	return out
}

// Int32s reinterprets Data as little-endian two's complement 32-bit integers.
func (t Tensor) Int32s() []int32 {
	out := make([]int32, len(t.Data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(t.Data[4*i:]))
	}
	return out
}

// Float16s reinterprets Data as little-endian halves and widens each to float32.
func (t Tensor) Float16s() []float32 {
	out := make([]float32, len(t.Data)/2)
	for i := range out {
		out[i] = float16.Frombits(binary.LittleEndian.Uint16(t.Data[2*i:])).Float32()
	}
	return out
}

func (t Tensor) String() string {
	return fmt.Sprintf("Tensor{%s %v, %d bytes}", t.Type, t.Dimensions, len(t.Data))
}

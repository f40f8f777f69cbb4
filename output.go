package wasinn

// OutputTensor is the result of GetOutput.
//
// The embedded Tensor always describes the whole caller buffer as a flat u8
// tensor, so Dimensions is [len(buf)] even when the host wrote fewer bytes.
// Use Written for the byte count the host reported.
type OutputTensor struct {
	Tensor
	BytesWritten uint32
}

func newOutputTensor(buf []byte, written uint32) OutputTensor {
	return OutputTensor{
		Tensor: Tensor{
			Dimensions: []uint32{uint32(len(buf))},
			Type:       TensorU8,
			Data:       buf,
		},
		BytesWritten: written,
	}
}

// Capacity returns the size of the buffer handed to the host.
func (o OutputTensor) Capacity() int { return len(o.Data) }

// Written returns the prefix of the buffer the host reported as written.
// A count larger than the buffer is clamped.
func (o OutputTensor) Written() []byte {
	n := int(o.BytesWritten)
	if n > len(o.Data) {
		n = len(o.Data)
	}
	return o.Data[:n]
}

// Exact returns a tensor of the given type and shape over the written bytes.
// No length check is made against dims.
func (o OutputTensor) Exact(typ TensorType, dims []uint32) Tensor {
	return NewTensor(dims, typ, o.Written())
}

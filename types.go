package wasinn

import (
	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
)

// Re-exported domain types so that guest code needs a single import.
type (
	GraphEncoding   = entities.GraphEncoding
	ExecutionTarget = entities.ExecutionTarget
	TensorType      = entities.TensorType
	Tensor          = entities.Tensor
	ErrorDetail     = entities.ErrorDetail
	HostCallError   = nnerrors.HostCallError
)

const (
	EncodingOpenVINO       = entities.EncodingOpenVINO
	EncodingONNX           = entities.EncodingONNX
	EncodingTensorFlow     = entities.EncodingTensorFlow
	EncodingPyTorch        = entities.EncodingPyTorch
	EncodingTensorFlowLite = entities.EncodingTensorFlowLite

	TargetCPU = entities.TargetCPU
	TargetGPU = entities.TargetGPU
	TargetTPU = entities.TargetTPU

	TensorF16 = entities.TensorF16
	TensorF32 = entities.TensorF32
	TensorU8  = entities.TensorU8
	TensorI32 = entities.TensorI32
)

// Names of the host entry points, as carried by HostCallError.Operation.
const (
	OpLoad                 = "load"
	OpInitExecutionContext = "init_execution_context"
	OpSetInput             = "set_input"
	OpCompute              = "compute"
	OpGetOutput            = "get_output"
	OpImageToTensor        = "image_to_tensor"
	OpConvertImage         = "convert_image"
)

// NewTensor builds a tensor without copying dims or data.
func NewTensor(dims []uint32, typ TensorType, data []byte) Tensor {
	return entities.NewTensor(dims, typ, data)
}

// TensorFromFloat32s packs values as a little-endian F32 tensor.
func TensorFromFloat32s(dims []uint32, values []float32) Tensor {
	return entities.TensorFromFloat32s(dims, values)
}

// TensorFromInt32s packs values as a little-endian I32 tensor.
func TensorFromInt32s(dims []uint32, values []int32) Tensor {
	return entities.TensorFromInt32s(dims, values)
}

// TensorFromFloat16s narrows values to IEEE half precision.
func TensorFromFloat16s(dims []uint32, values []float32) Tensor {
	return entities.TensorFromFloat16s(dims, values)
}

// ToErrorDetail converts any SDK error into its structured form.
func ToErrorDetail(err error) *ErrorDetail {
	return nnerrors.ToErrorDetail(err)
}

// noCopy marks handle wrappers that must not be copied after first use.
// go vet's copylocks check reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

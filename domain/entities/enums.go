package entities

import (
	"fmt"
	"strings"
)

// GraphEncoding identifies the serialization format of a model graph.
type GraphEncoding uint32

const (
	EncodingOpenVINO       GraphEncoding = 0
	EncodingONNX           GraphEncoding = 1
	EncodingTensorFlow     GraphEncoding = 2
	EncodingPyTorch        GraphEncoding = 3
	EncodingTensorFlowLite GraphEncoding = 4
)

var graphEncodingNames = []string{"openvino", "onnx", "tensorflow", "pytorch", "tensorflowlite"}

func (e GraphEncoding) String() string {
	if int(e) < len(graphEncodingNames) {
		return graphEncodingNames[e]
	}
	return fmt.Sprintf("GraphEncoding(%d)", uint32(e))
}

// Valid reports whether e is one of the encodings defined by the interface.
func (e GraphEncoding) Valid() bool {
	return int(e) < len(graphEncodingNames)
}

// MarshalText implements encoding.TextMarshaler.
func (e GraphEncoding) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid graph encoding %d", uint32(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *GraphEncoding) UnmarshalText(text []byte) error {
	v, err := ParseGraphEncoding(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// ParseGraphEncoding parses a case-insensitive encoding name such as "onnx".
func ParseGraphEncoding(s string) (GraphEncoding, error) {
	idx, ok := lookupName(graphEncodingNames, s)
	if !ok {
		return 0, fmt.Errorf("unknown graph encoding %q", s)
	}
	return GraphEncoding(idx), nil
}

// ExecutionTarget is the device a graph is requested to run on.
type ExecutionTarget uint32

const (
	TargetCPU ExecutionTarget = 0
	TargetGPU ExecutionTarget = 1
	TargetTPU ExecutionTarget = 2
)

var executionTargetNames = []string{"cpu", "gpu", "tpu"}

func (t ExecutionTarget) String() string {
	if int(t) < len(executionTargetNames) {
		return executionTargetNames[t]
	}
	return fmt.Sprintf("ExecutionTarget(%d)", uint32(t))
}

// Valid reports whether t is one of the targets defined by the interface.
func (t ExecutionTarget) Valid() bool {
	return int(t) < len(executionTargetNames)
}

// MarshalText implements encoding.TextMarshaler.
func (t ExecutionTarget) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid execution target %d", uint32(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ExecutionTarget) UnmarshalText(text []byte) error {
	v, err := ParseExecutionTarget(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseExecutionTarget parses a case-insensitive target name such as "gpu".
func ParseExecutionTarget(s string) (ExecutionTarget, error) {
	idx, ok := lookupName(executionTargetNames, s)
	if !ok {
		return 0, fmt.Errorf("unknown execution target %q", s)
	}
	return ExecutionTarget(idx), nil
}

// TensorType is the element type tag of a tensor.
type TensorType uint32

const (
	TensorF16 TensorType = 0
	TensorF32 TensorType = 1
	TensorU8  TensorType = 2
	TensorI32 TensorType = 3
)

var tensorTypeNames = []string{"f16", "f32", "u8", "i32"}

// ByteWidth returns the size in bytes of one element, or 0 for an unknown tag.
func (t TensorType) ByteWidth() int {
	switch t {
	case TensorF16:
		return 2
	case TensorF32, TensorI32:
		return 4
	case TensorU8:
		return 1
	default:
		return 0
	}
}

func (t TensorType) String() string {
	if int(t) < len(tensorTypeNames) {
		return tensorTypeNames[t]
	}
	return fmt.Sprintf("TensorType(%d)", uint32(t))
}

// Valid reports whether t is one of the tensor types defined by the interface.
func (t TensorType) Valid() bool {
	return int(t) < len(tensorTypeNames)
}

// MarshalText implements encoding.TextMarshaler.
func (t TensorType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tensor type %d", uint32(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TensorType) UnmarshalText(text []byte) error {
	v, err := ParseTensorType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTensorType parses a case-insensitive type name such as "f32".
func ParseTensorType(s string) (TensorType, error) {
	idx, ok := lookupName(tensorTypeNames, s)
	if !ok {
		return 0, fmt.Errorf("unknown tensor type %q", s)
	}
	return TensorType(idx), nil
}

func lookupName(names []string, s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}

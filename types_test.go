package wasinn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wasinn "github.com/wasinn-dev/wasinn-sdk"
)

func TestTensorConstructors(t *testing.T) {
	f32 := wasinn.TensorFromFloat32s([]uint32{1, 2}, []float32{0.5, -1})
	assert.Equal(t, wasinn.TensorF32, f32.Type)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x3f, 0x00, 0x00, 0x80, 0xbf}, f32.Data)
	require.NoError(t, f32.Validate())

	i32 := wasinn.TensorFromInt32s([]uint32{2}, []int32{1, -1})
	assert.Equal(t, wasinn.TensorI32, i32.Type)
	assert.Equal(t, []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}, i32.Data)

	f16 := wasinn.TensorFromFloat16s([]uint32{2}, []float32{1, -2})
	assert.Equal(t, wasinn.TensorF16, f16.Type)
	assert.Equal(t, []byte{0x00, 0x3c, 0x00, 0xc0}, f16.Data)
	assert.Equal(t, []uint32{2}, f16.Dimensions)
}

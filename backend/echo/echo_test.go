package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
)

func TestEcho_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()

	model, err := b.Load(ctx, [][]byte{[]byte("graph")}, entities.EncodingONNX, entities.TargetCPU)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("graph")}, model.(*Model).Blobs())

	s, err := model.NewSession(ctx)
	require.NoError(t, err)

	in := entities.TensorFromFloat32s([]uint32{2}, []float32{1.5, -2})
	require.NoError(t, s.SetInput(ctx, 0, in))
	require.NoError(t, s.Compute(ctx))

	out, err := s.Output(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, in.Data, out)
}

func TestEcho_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		b     *Backend
		blobs [][]byte
		enc   entities.GraphEncoding
		tgt   entities.ExecutionTarget
		errno hostfuncs.Errno
	}{
		{"encoding", New(WithEncodings(entities.EncodingOpenVINO)), [][]byte{{1}}, entities.EncodingONNX, entities.TargetCPU, hostfuncs.ErrnoInvalidEncoding},
		{"target", New(), [][]byte{{1}}, entities.EncodingONNX, entities.TargetGPU, hostfuncs.ErrnoUnsupportedOperation},
		{"no blobs", New(), nil, entities.EncodingONNX, entities.TargetCPU, hostfuncs.ErrnoInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Load(ctx, tt.blobs, tt.enc, tt.tgt)
			require.Error(t, err)
			assert.Equal(t, tt.errno, hostfuncs.ErrnoOf(err))
		})
	}
}

func TestEcho_OutputBeforeCompute(t *testing.T) {
	ctx := context.Background()
	model, err := New(WithTargets(entities.TargetGPU)).Load(ctx, [][]byte{{0}}, entities.EncodingTensorFlow, entities.TargetGPU)
	require.NoError(t, err)
	s, err := model.NewSession(ctx)
	require.NoError(t, err)

	_, err = s.Output(ctx, 0)
	assert.Equal(t, hostfuncs.ErrnoRuntimeError, hostfuncs.ErrnoOf(err))

	assert.Equal(t, hostfuncs.ErrnoRuntimeError, hostfuncs.ErrnoOf(s.Compute(ctx)))

	require.NoError(t, s.SetInput(ctx, 1, entities.NewTensor([]uint32{1}, entities.TensorU8, []byte{9})))
	require.NoError(t, s.Compute(ctx))
	_, err = s.Output(ctx, 0)
	assert.Equal(t, hostfuncs.ErrnoNotFound, hostfuncs.ErrnoOf(err))
}

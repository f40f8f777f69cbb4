package wasinn_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wasinn "github.com/wasinn-dev/wasinn-sdk"
	"github.com/wasinn-dev/wasinn-sdk/backend/echo"
	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
	"github.com/wasinn-dev/wasinn-sdk/nntest"
)

func TestLoad_PassesBlobSequence(t *testing.T) {
	host := nntest.New(nntest.WithGraphHandle(42))
	c := host.Client()

	xml := []byte("<net/>")
	weights := bytes.Repeat([]byte{0xab}, 37)
	graph, err := c.Load([][]byte{xml, weights}, wasinn.EncodingOpenVINO, wasinn.TargetCPU)
	require.NoError(t, err)

	assert.Equal(t, uint32(42), graph.Handle())
	assert.Equal(t, "Graph#42", graph.String())
	assert.Equal(t, wasinn.EncodingOpenVINO, graph.Encoding())
	assert.Equal(t, wasinn.TargetCPU, graph.Target())

	loads := host.Loads()
	require.Len(t, loads, 1)
	assert.Equal(t, [][]byte{xml, weights}, loads[0].Blobs)
	assert.Equal(t, uint32(0), loads[0].Encoding)
	assert.Equal(t, uint32(0), loads[0].Target)

	require.Len(t, loads[0].Words, 4, "two words per blob")
	assert.Equal(t, uint32(len(xml)), loads[0].Words[1])
	assert.Equal(t, uint32(len(weights)), loads[0].Words[3])

	calls := host.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, uint32(2), calls[0].Params[1], "builder length is the blob count")
}

func TestLoad_EncodingAndTargetTags(t *testing.T) {
	host := nntest.New()
	c := host.Client()

	_, err := c.Load([][]byte{{1}}, wasinn.EncodingTensorFlowLite, wasinn.TargetTPU)
	require.NoError(t, err)

	params := host.Calls()[0].Params
	assert.Equal(t, uint32(4), params[2])
	assert.Equal(t, uint32(2), params[3])
}

func TestLoad_EmptyBlobList(t *testing.T) {
	host := nntest.New()
	_, err := host.Client().Load(nil, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)

	loads := host.Loads()
	require.Len(t, loads, 1)
	assert.Empty(t, loads[0].Blobs)
	assert.Equal(t, uint32(0), host.Calls()[0].Params[1])
}

func TestLoad_FreshCellsAndNoLeak(t *testing.T) {
	host := nntest.New(nntest.WithGraphHandle(7))
	c := host.Client()

	mark := host.Mem.Mark()
	g1, err := c.Load([][]byte{[]byte("a")}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)
	g2, err := c.Load([][]byte{[]byte("b")}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)

	assert.Equal(t, uint32(7), g1.Handle())
	assert.Equal(t, uint32(8), g2.Handle(), "earlier graph keeps its handle")
	assert.Equal(t, mark, host.Mem.Mark(), "per-call scratch is released")
}

func TestSetInput_Status2(t *testing.T) {
	host := nntest.New(nntest.WithStatus(wasinn.OpSetInput, 2))
	c := host.Client()

	graph, err := c.Load([][]byte{{0}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)
	ctx, err := graph.InitExecutionContext()
	require.NoError(t, err)

	err = ctx.SetInput(0, wasinn.NewTensor([]uint32{1}, wasinn.TensorU8, []byte{1}))
	require.Error(t, err)

	var hce *wasinn.HostCallError
	require.True(t, errors.As(err, &hce))
	assert.Equal(t, &nnerrors.HostCallError{Operation: "set_input", Code: 2}, hce)
	assert.Equal(t, "wasi-nn set_input failed: error code = 2", err.Error())
}

func TestNonzeroStatusForEveryOperation(t *testing.T) {
	ops := []string{
		wasinn.OpLoad,
		wasinn.OpInitExecutionContext,
		wasinn.OpSetInput,
		wasinn.OpCompute,
		wasinn.OpGetOutput,
		wasinn.OpImageToTensor,
		wasinn.OpConvertImage,
	}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			host := nntest.New(nntest.WithStatus(op, 5))
			err := runSequence(host.Client(), op)
			require.Error(t, err)

			hce, ok := nnerrors.IsHostCallError(err, op)
			require.True(t, ok, "error %v", err)
			assert.Equal(t, uint32(5), hce.Code)
		})
	}
}

// runSequence issues calls up to and including op and returns the first error.
func runSequence(c *wasinn.Client, op string) error {
	req := wasinn.ImageRequest{Path: "0.jpg", Width: 2, Height: 2, Precision: wasinn.TensorU8}
	switch op {
	case wasinn.OpImageToTensor:
		_, err := c.ImageToTensor(req, make([]byte, 12))
		return err
	case wasinn.OpConvertImage:
		_, err := c.ConvertImage(req, make([]byte, 12))
		return err
	}

	graph, err := c.Load([][]byte{{1}}, wasinn.EncodingOpenVINO, wasinn.TargetCPU)
	if err != nil || op == wasinn.OpLoad {
		return err
	}
	ctx, err := graph.InitExecutionContext()
	if err != nil || op == wasinn.OpInitExecutionContext {
		return err
	}
	if err := ctx.SetInput(0, wasinn.NewTensor([]uint32{1}, wasinn.TensorU8, []byte{1})); err != nil || op == wasinn.OpSetInput {
		return err
	}
	if err := ctx.Compute(); err != nil || op == wasinn.OpCompute {
		return err
	}
	_, err = ctx.GetOutput(0, make([]byte, 4))
	return err
}

func TestFailedLoadYieldsNoGraph(t *testing.T) {
	host := nntest.New(nntest.WithStatus(wasinn.OpLoad, 3))
	graph, err := host.Client().Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	assert.Error(t, err)
	assert.Nil(t, graph)
}

func TestInitExecutionContext_Independent(t *testing.T) {
	host := nntest.New(nntest.WithContextHandle(100))
	graph, err := host.Client().Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)

	c1, err := graph.InitExecutionContext()
	require.NoError(t, err)
	c2, err := graph.InitExecutionContext()
	require.NoError(t, err)

	assert.Equal(t, uint32(100), c1.Handle())
	assert.Equal(t, uint32(101), c2.Handle())
	assert.Same(t, graph, c1.Graph())

	calls := host.Calls()
	assert.Equal(t, graph.Handle(), calls[1].Params[0])
	assert.NotEqual(t, calls[1].Params[1], uint32(0), "out cell is a real address")
}

func TestSetInput_DescriptorLayout(t *testing.T) {
	host := nntest.New()
	graph, err := host.Client().Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)
	ctx, err := graph.InitExecutionContext()
	require.NoError(t, err)

	// Element count and byte length deliberately disagree.
	tensor := wasinn.NewTensor([]uint32{1, 3, 224, 224}, wasinn.TensorF32, make([]byte, 10))
	require.NoError(t, ctx.SetInput(3, tensor))

	inputs := host.Inputs()
	require.Len(t, inputs, 1)
	in := inputs[0]
	assert.Equal(t, uint32(3), in.Index)
	assert.Equal(t, ctx.Handle(), in.Context)
	assert.Equal(t, uint32(4), in.Descriptor.DimsLen, "dims length counts elements")
	assert.Equal(t, uint32(1), in.Descriptor.Type)
	assert.Equal(t, uint32(10), in.Descriptor.DataLen)
	assert.Equal(t, []uint32{1, 3, 224, 224}, in.Tensor.Dimensions)
}

func TestSetInput_Scalar(t *testing.T) {
	host := nntest.New()
	graph, err := host.Client().Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)
	ctx, err := graph.InitExecutionContext()
	require.NoError(t, err)

	require.NoError(t, ctx.SetInput(0, wasinn.NewTensor(nil, wasinn.TensorI32, []byte{1, 0, 0, 0})))
	assert.Equal(t, uint32(0), host.Inputs()[0].Descriptor.DimsLen)
}

func TestGetOutput_DimsEqualCapacity(t *testing.T) {
	host := nntest.New(nntest.WithOutput(0, []byte{9, 8, 7, 6}))
	graph, err := host.Client().Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)
	ctx, err := graph.InitExecutionContext()
	require.NoError(t, err)

	buf := make([]byte, 16)
	out, err := ctx.GetOutput(0, buf)
	require.NoError(t, err)

	assert.Equal(t, []uint32{16}, out.Dimensions)
	assert.Equal(t, wasinn.TensorU8, out.Type)
	assert.Equal(t, 16, out.Capacity())
	assert.Equal(t, uint32(4), out.BytesWritten)
	assert.Equal(t, []byte{9, 8, 7, 6}, out.Written())
	assert.Equal(t, []byte{9, 8, 7, 6}, buf[:4], "host writes land in the caller's buffer")
	assert.Same(t, &buf[0], &out.Data[0])

	calls := host.Calls()
	assert.Equal(t, uint32(16), calls[len(calls)-1].Params[3])
}

func TestGetOutput_WrittenClamped(t *testing.T) {
	host := nntest.New(nntest.WithBytesWritten(1000))
	graph, err := host.Client().Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)
	ctx, err := graph.InitExecutionContext()
	require.NoError(t, err)

	out, err := ctx.GetOutput(0, make([]byte, 8))
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), out.BytesWritten)
	assert.Len(t, out.Written(), 8)
}

func TestRoundTrip_Echo(t *testing.T) {
	loop := nntest.NewLoopback(hostfuncs.NewNN(echo.New()), nil)
	c := loop.Client()

	graph, err := c.NewGraphBuilder().WithEncoding(wasinn.EncodingONNX).CPU().BuildFromBytes([]byte("model"))
	require.NoError(t, err)
	ctx, err := graph.InitExecutionContext()
	require.NoError(t, err)

	values := []float32{0, -1.25, 3.5e10, 1e-30}
	in := wasinn.TensorFromFloat32s([]uint32{2, 2}, values)
	require.NoError(t, ctx.SetInput(0, in))
	require.NoError(t, ctx.Compute())

	out, err := ctx.GetOutput(0, make([]byte, 64))
	require.NoError(t, err)
	assert.Equal(t, in.Data, out.Written(), "bytes are bit-identical")
	assert.Equal(t, values, out.Exact(wasinn.TensorF32, []uint32{2, 2}).Float32s())
}

func TestRoundTrip_EchoErrorsSurfaceAsStatus(t *testing.T) {
	loop := nntest.NewLoopback(hostfuncs.NewNN(echo.New()), nil)
	c := loop.Client()

	_, err := c.Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetGPU)
	hce, ok := nnerrors.IsHostCallError(err, wasinn.OpLoad)
	require.True(t, ok)
	assert.Equal(t, uint32(hostfuncs.ErrnoUnsupportedOperation), hce.Code)

	graph, err := c.Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.NoError(t, err)
	ctx, err := graph.InitExecutionContext()
	require.NoError(t, err)
	require.NoError(t, ctx.SetInput(0, wasinn.NewTensor([]uint32{8}, wasinn.TensorU8, make([]byte, 8))))
	require.NoError(t, ctx.Compute())

	_, err = ctx.GetOutput(0, make([]byte, 4))
	hce, ok = nnerrors.IsHostCallError(err, wasinn.OpGetOutput)
	require.True(t, ok)
	assert.Equal(t, uint32(hostfuncs.ErrnoTooLarge), hce.Code)
}

func TestClient_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	host := nntest.New(nntest.WithStatus(wasinn.OpLoad, 4))
	_, err := host.Client(wasinn.WithLogger(logger)).Load([][]byte{{1}}, wasinn.EncodingONNX, wasinn.TargetCPU)
	require.Error(t, err)

	assert.Contains(t, buf.String(), "op=load")
	assert.Contains(t, buf.String(), "status=4")
}

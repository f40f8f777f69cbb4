package wazero

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasinn-dev/wasinn-sdk/backend/echo"
	"github.com/wasinn-dev/wasinn-sdk/domain/entities"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
	"github.com/wasinn-dev/wasinn-sdk/internal/testutil"
	wasinnlog "github.com/wasinn-dev/wasinn-sdk/log"
)

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()
	assert.Equal(t, "wasi_ephemeral_nn", cfg.ModuleName)
	assert.Equal(t, uint32(DefaultMaxRequestSize), cfg.MaxRequestSize)
}

func TestAdapterOptions(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithModuleName("custom_module")(&cfg)
	WithMaxRequestSize(2048)(&cfg)
	WithCustomHandler(CustomHandler{Name: "test_handler"})(&cfg)

	assert.Equal(t, "custom_module", cfg.ModuleName)
	assert.Equal(t, uint32(2048), cfg.MaxRequestSize)
	require.Len(t, cfg.CustomHandlers, 1)
	assert.Equal(t, "test_handler", cfg.CustomHandlers[0].Name)
}

func TestUnpackPtrLen(t *testing.T) {
	tests := []struct {
		packed uint64
		ptr    uint32
		length uint32
	}{
		{0, 0, 0},
		{1<<32 | 1, 1, 1},
		{0xFFFFFFFFFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF},
		{0x123456789ABCDEF0, 0x12345678, 0x9ABCDEF0},
		// A null pointer with a length is invalid for the guest but must not panic here.
		{50, 0, 50},
	}
	for _, tt := range tests {
		ptr, length := unpackPtrLen(tt.packed)
		assert.Equal(t, tt.ptr, ptr)
		assert.Equal(t, tt.length, length)
	}
}

func TestRegisterWithRuntime_EmptyModuleName(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	err := RegisterWithRuntime(ctx, rt, nil, WithModuleName(""))
	assert.Error(t, err)
}

type nnGuest struct {
	t   *testing.T
	ctx context.Context
	mod api.Module
}

func newNNGuest(t *testing.T, nn *hostfuncs.NN) *nnGuest {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.NNBundle(nn)))
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, registry))

	mod, err := rt.Instantiate(ctx, testutil.Forwarders(
		testutil.NNImport(hostfuncs.FuncLoad, 5),
		testutil.NNImport(hostfuncs.FuncInitExecutionContext, 2),
		testutil.NNImport(hostfuncs.FuncSetInput, 3),
		testutil.NNImport(hostfuncs.FuncCompute, 1),
		testutil.NNImport(hostfuncs.FuncGetOutput, 5),
	).Bytes())
	require.NoError(t, err)
	return &nnGuest{t: t, ctx: ctx, mod: mod}
}

func (g *nnGuest) call(name string, params ...uint32) hostfuncs.Errno {
	g.t.Helper()
	args := make([]uint64, len(params))
	for i, p := range params {
		args[i] = api.EncodeU32(p)
	}
	res, err := g.mod.ExportedFunction(name).Call(g.ctx, args...)
	require.NoError(g.t, err)
	return hostfuncs.Errno(api.DecodeU32(res[0]))
}

func (g *nnGuest) write(addr uint32, b []byte) {
	require.True(g.t, g.mod.Memory().Write(addr, b))
}

func (g *nnGuest) u32(addr uint32) uint32 {
	v, ok := g.mod.Memory().ReadUint32Le(addr)
	require.True(g.t, ok)
	return v
}

func TestRegisterWithRuntime_EndToEnd(t *testing.T) {
	nn := hostfuncs.NewNN(echo.New())
	g := newNNGuest(t, nn)

	// Blob sequence: one (ptr, len) record at 64 pointing at the model bytes.
	g.write(1024, []byte("model"))
	g.write(64, abi.EncodeWords([]uint32{1024, 5}))
	require.Equal(t, hostfuncs.ErrnoSuccess, g.call(hostfuncs.FuncLoad, 64, 1, uint32(entities.EncodingOpenVINO), uint32(entities.TargetCPU), 128))
	graph := g.u32(128)
	assert.Equal(t, 1, nn.Graphs())

	require.Equal(t, hostfuncs.ErrnoSuccess, g.call(hostfuncs.FuncInitExecutionContext, graph, 132))
	execCtx := g.u32(132)

	input := []byte{7, 8, 9}
	g.write(300, abi.EncodeWords([]uint32{3}))
	g.write(400, input)
	desc := abi.TensorDescriptor{DimsPtr: 300, DimsLen: 1, Type: uint32(entities.TensorU8), DataPtr: 400, DataLen: 3}
	g.write(200, desc.Bytes())
	require.Equal(t, hostfuncs.ErrnoSuccess, g.call(hostfuncs.FuncSetInput, execCtx, 0, 200))

	require.Equal(t, hostfuncs.ErrnoSuccess, g.call(hostfuncs.FuncCompute, execCtx))

	require.Equal(t, hostfuncs.ErrnoSuccess, g.call(hostfuncs.FuncGetOutput, execCtx, 0, 500, 16, 136))
	assert.Equal(t, uint32(3), g.u32(136))
	out, ok := g.mod.Memory().Read(500, 3)
	require.True(t, ok)
	assert.Equal(t, input, out)
}

func TestRegisterWithRuntime_StatusCodes(t *testing.T) {
	g := newNNGuest(t, hostfuncs.NewNN(echo.New()))

	assert.Equal(t, hostfuncs.ErrnoInvalidArgument, g.call(hostfuncs.FuncCompute, 7))
	assert.Equal(t, hostfuncs.ErrnoInvalidEncoding, g.call(hostfuncs.FuncLoad, 64, 0, 99, 0, 128))
	// Blob record pointing past the end of the single page.
	g.write(64, abi.EncodeWords([]uint32{0xFFFFFFF0, 64}))
	assert.NotEqual(t, hostfuncs.ErrnoSuccess, g.call(hostfuncs.FuncLoad, 64, 1, 0, 0, 128))
}

func TestRegisterWithRuntime_MissingMemory(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	registry, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.NNBundle(hostfuncs.NewNN(echo.New()))))
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, registry))

	guest := testutil.Forwarders(
		testutil.NNImport(hostfuncs.FuncLoad, 5),
		testutil.NNImport(hostfuncs.FuncCompute, 1),
	)
	guest.Memory = false
	mod, err := rt.Instantiate(ctx, guest.Bytes())
	require.NoError(t, err)

	tests := []struct {
		name   string
		params []uint64
	}{
		{name: hostfuncs.FuncLoad, params: []uint64{0, 0, 0, 0, 0}},
		{name: hostfuncs.FuncCompute, params: []uint64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := mod.ExportedFunction(tt.name).Call(ctx, tt.params...)
			require.NoError(t, err)
			assert.Equal(t, uint32(hostfuncs.ErrnoMissingMemory), api.DecodeU32(res[0]))
		})
	}
}

func TestRegisterLogChannel_MissingMemory(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	require.NoError(t, RegisterLogChannel(ctx, rt, logger))

	guest := testutil.Forwarders(testutil.Import{
		Module: LogModuleName,
		Name:   "log_message",
		Type:   testutil.FuncType{Params: []api.ValueType{api.ValueTypeI64}},
	})
	guest.Memory = false
	mod, err := rt.Instantiate(ctx, guest.Bytes())
	require.NoError(t, err)

	_, err = mod.ExportedFunction("log_message").Call(ctx, uint64(16)<<32|uint64(8))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "without memory")
}

func TestRegisterLogChannel(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, RegisterLogChannel(ctx, rt, logger, WithMaxRequestSize(512)))

	logImport := testutil.Import{
		Module: LogModuleName,
		Name:   "log_message",
		Type:   testutil.FuncType{Params: []api.ValueType{api.ValueTypeI64}},
	}
	mod, err := rt.InstantiateWithConfig(ctx, testutil.Forwarders(logImport).Bytes(), wazero.NewModuleConfig().WithName("classify"))
	require.NoError(t, err)

	payload, err := json.Marshal(wasinnlog.LogMessageWire{
		Level:   "INFO",
		Message: "top-1 label",
		Attrs:   []wasinnlog.LogAttrWire{{Key: "label", Type: "string", Value: "tabby"}},
	})
	require.NoError(t, err)
	require.True(t, mod.Memory().Write(2048, payload))

	_, err = mod.ExportedFunction("log_message").Call(ctx, uint64(2048)<<32|uint64(len(payload)))
	require.NoError(t, err)

	lines := testutil.DecodeJSONLines(t, buf.Bytes())
	require.Len(t, lines, 1)
	got := lines[0]
	assert.Equal(t, "top-1 label", got["msg"])
	assert.Equal(t, "classify", got["guest"])
	assert.Equal(t, "tabby", got["label"])

	// Oversized payloads are dropped with a warning.
	buf.Reset()
	_, err = mod.ExportedFunction("log_message").Call(ctx, uint64(2048)<<32|uint64(4096))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "too large")
}

func TestGuestNameContext(t *testing.T) {
	ctx := context.Background()
	_, ok := GuestNameFromContext(ctx)
	assert.False(t, ok)

	ctx = WithGuestName(ctx, "classify")
	name, ok := GuestNameFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "classify", name)

	_, ok = GuestNameFromContext(WithGuestName(ctx, ""))
	assert.False(t, ok)
}

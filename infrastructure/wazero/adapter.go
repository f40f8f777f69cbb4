package wazero

import (
	"context"
	"errors"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
)

const (
	// DefaultModuleName is the import module guests use for wasi-nn.
	DefaultModuleName = "wasi_ephemeral_nn"

	// LogModuleName is the import module of the guest log channel.
	LogModuleName = "wasinn_host"

	// DefaultMaxRequestSize bounds a single log message read from guest memory.
	DefaultMaxRequestSize = 64 << 10
)

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "wasi_ephemeral_nn").
	ModuleName string

	// MaxRequestSize limits the size of payloads read by custom handlers,
	// such as log_message. Default is 64KiB.
	MaxRequestSize uint32

	// CustomHandlers allows adding wazero-specific handlers that do not follow
	// the i32-params, i32-errno convention of the registry.
	CustomHandlers []CustomHandler
}

// CustomHandler represents a wazero handler exported alongside the registry.
type CustomHandler struct {
	// Name is the exported function name.
	Name string

	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "wasi_ephemeral_nn").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum payload size read from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: DefaultMaxRequestSize,
	}
}

// RegisterWithRuntime instantiates a host module exporting every function of
// registry. Each export takes Func.Params i32 values and returns one i32
// errno. A nil registry registers only the custom handlers.
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.NNBundle(hostfuncs.NewNN(echo.New()))),
//	)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ModuleName == "" {
		return errors.New("wazero: empty host module name")
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	if registry != nil {
		for _, name := range registry.Names() {
			fn, _ := registry.Lookup(name)
			builder.NewFunctionBuilder().
				WithGoModuleFunction(registryCall(registry, fn), i32s(fn.Params), i32s(1)).
				Export(name)
		}
	}

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// registryCall adapts a registry function to the wazero stack convention.
func registryCall(registry *hostfuncs.HandlerRegistry, fn hostfuncs.Func) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		mem := guestMemory(mod)
		if mem == nil {
			stack[0] = api.EncodeU32(uint32(hostfuncs.ErrnoMissingMemory))
			return
		}
		params := make([]uint32, fn.Params)
		for i := range params {
			params[i] = api.DecodeU32(stack[i])
		}
		ctx = WithGuestName(ctx, GetGuestName(ctx, mod))
		stack[0] = api.EncodeU32(uint32(registry.Invoke(ctx, mem, fn.Name, params)))
	}
}

// guestMemory returns the guest's memory, or nil when it exports none.
// mod.Memory() is never nil for a module without memory, it wraps a nil instance.
func guestMemory(mod api.Module) api.Memory {
	if len(mod.ExportedMemoryDefinitions()) == 0 {
		return nil
	}
	return mod.Memory()
}

func i32s(n int) []api.ValueType {
	types := make([]api.ValueType, n)
	for i := range types {
		types[i] = api.ValueTypeI32
	}
	return types
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
// Unlike the guest helper it never panics: the value comes from untrusted code.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}

// Package wazero exports the pure Go host functions of package hostfuncs to
// guests running in the wazero WebAssembly runtime.
//
// Every registry function becomes an export of the host module
// (default "wasi_ephemeral_nn") taking only i32 parameters and returning an
// i32 errno. Guest memory reaches the handlers as wazero's api.Memory, which
// satisfies ports.Memory directly.
//
// # Basic Usage
//
//	nn := hostfuncs.NewNN(backend)
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.NNBundle(nn)),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry)
//
// # Log Channel
//
// Guests built with package log send JSON records to wasinn_host.log_message.
// RegisterLogChannel installs that module and replays records on a slog.Logger.
package wazero

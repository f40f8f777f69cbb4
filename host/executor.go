package host

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/wasinn-dev/wasinn-sdk/backend/echo"
	"github.com/wasinn-dev/wasinn-sdk/config"
	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
	"github.com/wasinn-dev/wasinn-sdk/hostfuncs"
	wazeroadapter "github.com/wasinn-dev/wasinn-sdk/infrastructure/wazero"
)

// Executor manages the lifecycle of wasi-nn guest modules.
type Executor struct {
	runtime  wazero.Runtime
	registry *hostfuncs.HandlerRegistry
	nn       *hostfuncs.NN
	backend  ports.Backend
	image    *hostfuncs.Image
	logger   *slog.Logger

	nnOpts           []hostfuncs.NNOption
	memoryLimitPages uint32

	// mu serializes Run; the handle tables belong to one guest at a time.
	mu sync.Mutex
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.registry == nil {
		if e.backend == nil {
			e.backend = echo.New()
		}
		nnOpts := append([]hostfuncs.NNOption{hostfuncs.WithNNLogger(e.logger)}, e.nnOpts...)
		e.nn = hostfuncs.NewNN(e.backend, nnOpts...)

		regOpts := []hostfuncs.RegistryOption{
			hostfuncs.WithMiddleware(
				hostfuncs.PanicRecoveryMiddleware(e.logger),
				hostfuncs.LoggingMiddleware(e.logger),
			),
			hostfuncs.WithBundle(hostfuncs.NNBundle(e.nn)),
		}
		if e.image != nil {
			regOpts = append(regOpts, hostfuncs.WithBundle(hostfuncs.ImageBundle(e.image)))
		}
		reg, err := hostfuncs.NewRegistry(regOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if e.memoryLimitPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(e.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg)
	e.runtime = rt

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	if err := wazeroadapter.RegisterWithRuntime(ctx, rt, e.registry); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}
	if err := wazeroadapter.RegisterLogChannel(ctx, rt, e.logger); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register log channel: %w", err)
	}

	return e, nil
}

// NewExecutorFromConfig builds an executor from a host configuration file.
// Explicit opts are applied after the configuration.
func NewExecutorFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Executor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	backend, err := cfg.NN.NewBackend()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithLogger(logger),
		WithBackend(backend, cfg.NN.Options(logger)...),
		WithMemoryLimitPages(cfg.Guest.MemoryLimitPages),
	}
	if cfg.Image.Enabled {
		base = append(base, WithImage(hostfuncs.NewImage(cfg.Image.Options(logger)...)))
	}
	return NewExecutor(ctx, append(base, opts...)...)
}

// Close releases resources held by the executor.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// NN returns the nn host module state, or nil when WithHostFunctions was used.
func (e *Executor) NN() *hostfuncs.NN {
	return e.nn
}

// Mount exposes a host directory to the guest.
type Mount struct {
	Host     string
	Guest    string
	ReadOnly bool
}

// RunOptions configures one guest run.
type RunOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Env    map[string]string
	// Name is the module name and argv[0] (default "guest").
	Name   string
	Args   []string
	Mounts []Mount
}

// RunOptionsFromConfig converts the guest section of a configuration file.
func RunOptionsFromConfig(cfg config.GuestConfig) RunOptions {
	opts := RunOptions{
		Name: cfg.Name,
		Args: cfg.Args,
		Env:  cfg.Env,
	}
	for _, m := range cfg.Mounts {
		opts.Mounts = append(opts.Mounts, Mount(m))
	}
	return opts
}

// Run instantiates wasm as a WASI command and runs its _start export.
//
// A guest that calls proc_exit returns its exit code with a nil error. If ctx
// is cancelled or times out the guest is stopped and ctx.Err() is returned.
func (e *Executor) Run(ctx context.Context, wasm []byte, opts RunOptions) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.nn != nil {
		defer e.nn.Reset()
	}

	name := opts.Name
	if name == "" {
		name = "guest"
	}

	mc := wazero.NewModuleConfig().
		WithName(name).
		WithArgs(append([]string{name}, opts.Args...)...).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)
	if opts.Stdin != nil {
		mc = mc.WithStdin(opts.Stdin)
	}
	if opts.Stdout != nil {
		mc = mc.WithStdout(opts.Stdout)
	}
	if opts.Stderr != nil {
		mc = mc.WithStderr(opts.Stderr)
	}
	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		mc = mc.WithEnv(k, opts.Env[k])
	}
	if len(opts.Mounts) > 0 {
		fs := wazero.NewFSConfig()
		for _, m := range opts.Mounts {
			if m.ReadOnly {
				fs = fs.WithReadOnlyDirMount(m.Host, m.Guest)
			} else {
				fs = fs.WithDirMount(m.Host, m.Guest)
			}
		}
		mc = mc.WithFSConfig(fs)
	}

	ctx = wazeroadapter.WithGuestName(ctx, name)
	e.logger.DebugContext(ctx, "host: running guest", "guest", name, "size", len(wasm))

	mod, err := e.runtime.InstantiateWithConfig(ctx, wasm, mc)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		switch code {
		case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return code, ctxErr
			}
		}
		e.logger.DebugContext(ctx, "host: guest exited", "guest", name, "code", code)
		return code, nil
	}
	return 0, fmt.Errorf("failed to run guest %q: %w", name, err)
}

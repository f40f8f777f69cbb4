package hostfuncs

import (
	"context"
	"fmt"
	"sort"

	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

// HandlerRegistry is an immutable collection of named host functions.
// Once created via NewRegistry, functions cannot be added or removed, so
// lookups need no locking.
type HandlerRegistry struct {
	funcs map[string]Func
	names []string // sorted for consistent iteration
}

type registryBuilder struct {
	funcs      map[string]Func
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable HandlerRegistry with the given options.
// Returns an error if any function name is registered twice.
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware(logger)),
//	    WithBundle(NNBundle(nn)),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{funcs: make(map[string]Func)}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.funcs))
	wrapped := make(map[string]Func, len(b.funcs))
	for name, fn := range b.funcs {
		names = append(names, name)
		h := arity(fn.Params, fn.Handler)
		// Apply middleware in reverse order so first middleware wraps outermost
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		fn.Handler = h
		wrapped[name] = fn
	}
	sort.Strings(names)

	return &HandlerRegistry{funcs: wrapped, names: names}, nil
}

// Invoke dispatches a host function call by name. Unknown names yield
// not_found and a wrong parameter count yields invalid_argument.
func (r *HandlerRegistry) Invoke(ctx context.Context, mem ports.Memory, name string, params []uint32) Errno {
	fn, ok := r.funcs[name]
	if !ok {
		return ErrnoNotFound
	}
	return fn.Handler(HostContextFrom(ctx, name), mem, params)
}

// Lookup returns the wrapped function registered under name.
func (r *HandlerRegistry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Has returns true if a function with the given name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Names returns a sorted list of all registered function names.
func (r *HandlerRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

func (b *registryBuilder) addFunc(fn Func) error {
	if fn.Name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if fn.Handler == nil {
		return fmt.Errorf("handler %q is nil", fn.Name)
	}
	if fn.Params < 0 {
		return fmt.Errorf("handler %q has negative parameter count", fn.Name)
	}
	if _, exists := b.funcs[fn.Name]; exists {
		return fmt.Errorf("duplicate handler name: %q", fn.Name)
	}
	b.funcs[fn.Name] = fn
	return nil
}

// WithFunc registers a single function.
func WithFunc(fn Func) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addFunc(fn); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithBundle registers every function of a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for _, fn := range bundle.Funcs() {
			if err := b.addFunc(fn); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}

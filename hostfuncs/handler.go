package hostfuncs

import (
	"context"

	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

// Handler implements one host function. params holds the raw i32 arguments
// in declaration order; the return value is the single i32 result.
type Handler func(ctx context.Context, mem ports.Memory, params []uint32) Errno

// Func describes a host function as exported to the guest: every parameter
// is an i32 and the result is one i32 status.
type Func struct {
	Handler Handler
	Name    string
	Params  int
}

// arity returns a Handler that checks arity before calling fn.
func arity(n int, fn Handler) Handler {
	return func(ctx context.Context, mem ports.Memory, params []uint32) Errno {
		if len(params) != n {
			return ErrnoInvalidArgument
		}
		return fn(ctx, mem, params)
	}
}

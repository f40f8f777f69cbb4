package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wasinn-dev/wasinn-sdk/domain/ports"
)

// Middleware wraps a Handler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next Handler) Handler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware turns a panicking handler into runtime_error
// instead of crashing the host.
func PanicRecoveryMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, mem ports.Memory, params []uint32) (errno Errno) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "host function panicked",
						slog.String("function", FunctionName(ctx)),
						slog.String("panic", fmt.Sprint(r)))
					errno = ErrnoRuntimeError
				}
			}()
			return next(ctx, mem, params)
		}
	}
}

// LoggingMiddleware logs every invocation at debug level and every failure
// at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, mem ports.Memory, params []uint32) Errno {
			start := time.Now()
			errno := next(ctx, mem, params)
			attrs := []any{
				slog.String("function", FunctionName(ctx)),
				slog.String("errno", errno.String()),
				slog.Duration("duration", time.Since(start)),
			}
			if errno != ErrnoSuccess {
				logger.WarnContext(ctx, "host function failed", attrs...)
			} else {
				logger.DebugContext(ctx, "host function completed", attrs...)
			}
			return errno
		}
	}
}

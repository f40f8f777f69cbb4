package wazero

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	wasinnlog "github.com/wasinn-dev/wasinn-sdk/log"
)

// RegisterLogChannel instantiates the wasinn_host module carrying log_message,
// which replays guest slog records on logger.
func RegisterLogChannel(ctx context.Context, runtime wazero.Runtime, logger *slog.Logger, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	all := append([]AdapterOption{WithModuleName(LogModuleName)}, opts...)
	all = append(all, WithCustomHandler(LogMessageHandler(logger, cfg.MaxRequestSize)))
	return RegisterWithRuntime(ctx, runtime, nil, all...)
}

// LogMessageHandler returns the log_message handler. The guest passes a packed
// ptr/len of a JSON log record; the handler returns nothing.
// Records larger than maxSize or that fail to decode are dropped with a warning.
func LogMessageHandler(logger *slog.Logger, maxSize uint32) CustomHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSize == 0 {
		maxSize = DefaultMaxRequestSize
	}
	return CustomHandler{
		Name: "log_message",
		Handler: func(ctx context.Context, mod api.Module, stack []uint64) {
			ptr, length := unpackPtrLen(stack[0])
			guest := GetGuestName(ctx, mod)
			if length > maxSize {
				logger.WarnContext(ctx, "wazero: guest log message too large", "guest", guest, "size", length)
				return
			}
			mem := guestMemory(mod)
			if mem == nil {
				logger.WarnContext(ctx, "wazero: guest log message without memory", "guest", guest)
				return
			}
			data, ok := mem.Read(ptr, length)
			if !ok {
				logger.WarnContext(ctx, "wazero: guest log message out of range", "guest", guest, "ptr", ptr, "size", length)
				return
			}
			msg, err := wasinnlog.DecodeLogMessage(data)
			if err != nil {
				logger.WarnContext(ctx, "wazero: dropping guest log message", "guest", guest, "error", err)
				return
			}
			msg.Replay(ctx, logger, slog.String("guest", guest))
		},
		ParamTypes:  []api.ValueType{api.ValueTypeI64},
		ResultTypes: []api.ValueType{},
	}
}

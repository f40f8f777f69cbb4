//go:build !wasip1

package log

import (
	"context"
	"fmt"
	"log/slog"
)

// Handle for non-WASM builds (e.g., host tests) prints a stub line.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	msg := h.wire(record)
	fmt.Printf("[HOST-STUB] Level=%s Msg=%q Attrs=%d\n", msg.Level, msg.Message, len(msg.Attrs))
	return nil
}

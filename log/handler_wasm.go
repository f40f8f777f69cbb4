//go:build wasip1

package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wasinn-dev/wasinn-sdk/internal/abi"
)

// HostModule is the import module of the log channel.
const HostModule = "wasinn_host"

//go:wasmimport wasinn_host log_message
//nolint:revive // intentional snake_case to match WASM import convention
func host_log_message(messagePacked uint64)

// Handle serializes a slog.Record and sends it to the host.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	requestBytes, err := json.Marshal(h.wire(record))
	if err != nil {
		// Fall back to stdout; the record is not lost.
		fmt.Printf("wasinn: failed to marshal log message for host: %v, original: %s\n", err, record.Message)
		return nil
	}

	arena := abi.NewLinearArena()
	defer arena.Release()
	packed, err := abi.PlacePacked(arena, requestBytes)
	if err != nil {
		return err
	}
	host_log_message(packed)
	return nil
}

func init() {
	slog.SetDefault(slog.New(NewHandler()))
}

package wasinn

import (
	"context"
	"log/slog"

	nnerrors "github.com/wasinn-dev/wasinn-sdk/domain/errors"
)

// checkStatus maps a host status to an error. Zero is success; every other
// value is returned untouched inside a HostCallError.
func checkStatus(op string, code uint32) error {
	if code == 0 {
		return nil
	}
	return &nnerrors.HostCallError{Operation: op, Code: code}
}

// check is checkStatus plus a debug record of the call outcome.
func (c *Client) check(op string, code uint32, attrs ...any) error {
	err := checkStatus(op, code)
	if l := c.log(); l.Enabled(context.Background(), slog.LevelDebug) {
		attrs = append(attrs, slog.String("op", op), slog.Uint64("status", uint64(code)))
		l.Debug("wasi-nn call", attrs...)
	}
	return err
}

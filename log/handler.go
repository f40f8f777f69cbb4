// Package log routes slog records from a wasm guest to its host.
//
// On wasip1 builds, importing the package installs a WasmLogHandler as the
// slog default and each record is serialized as JSON and handed to the host's
// wasinn_host.log_message import. Native builds leave the default alone; the
// host side uses DecodeLogMessage and Replay.
package log

import (
	"context"
	"log/slog"
	"slices"
)

// WasmLogHandler implements slog.Handler to route logs through a host function.
type WasmLogHandler struct {
	attrs  []LogAttrWire
	groups []string
	opts   handlerConfig
}

// HandlerOption configures the WasmLogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are dropped in the guest.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a new WasmLogHandler with the given options.
func NewHandler(opts ...HandlerOption) *WasmLogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WasmLogHandler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *WasmLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// WithAttrs returns a handler that adds attrs, qualified by the current
// group, to every record.
func (h *WasmLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := h.clone()
	for _, a := range attrs {
		nh.attrs = appendAttr(nh.attrs, h.prefix(), a)
	}
	return nh
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *WasmLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := h.clone()
	nh.groups = append(nh.groups, name)
	return nh
}

func (h *WasmLogHandler) clone() *WasmLogHandler {
	return &WasmLogHandler{
		attrs:  slices.Clip(h.attrs),
		groups: slices.Clip(h.groups),
		opts:   h.opts,
	}
}

func (h *WasmLogHandler) prefix() string {
	p := ""
	for _, g := range h.groups {
		p += g + "."
	}
	return p
}

// wire builds the message for record.
func (h *WasmLogHandler) wire(record slog.Record) LogMessageWire {
	msg := LogMessageWire{
		Level:     record.Level.String(),
		Message:   record.Message,
		Timestamp: record.Time,
		Attrs:     slices.Clone(h.attrs),
	}
	prefix := h.prefix()
	record.Attrs(func(a slog.Attr) bool {
		msg.Attrs = appendAttr(msg.Attrs, prefix, a)
		return true
	})
	if h.opts.addSource && record.PC != 0 {
		msg.Source = sourceOf(record.PC)
	}
	return msg
}

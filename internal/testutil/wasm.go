package testutil

import (
	"github.com/tetratelabs/wazero/api"
)

// FuncType is a wasm function signature.
type FuncType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Import is an imported function.
type Import struct {
	Module string
	Name   string
	Type   FuncType
}

// Func is a defined function. Body holds instructions without the locals
// header or the final end opcode. Name, when set, exports the function.
type Func struct {
	Name string
	Type FuncType
	Body []byte
}

// Module describes a guest module with one page of exported "memory" when
// Memory is set.
type Module struct {
	Imports []Import
	Funcs   []Func
	Memory  bool
}

// I32s returns n i32 value types.
func I32s(n int) []api.ValueType {
	types := make([]api.ValueType, n)
	for i := range types {
		types[i] = api.ValueTypeI32
	}
	return types
}

// NNImport declares a wasi_ephemeral_nn import taking params i32s and
// returning an i32 errno.
func NNImport(name string, params int) Import {
	return Import{
		Module: "wasi_ephemeral_nn",
		Name:   name,
		Type:   FuncType{Params: I32s(params), Results: I32s(1)},
	}
}

// ProcExit declares wasi_snapshot_preview1.proc_exit.
func ProcExit() Import {
	return Import{
		Module: "wasi_snapshot_preview1",
		Name:   "proc_exit",
		Type:   FuncType{Params: I32s(1)},
	}
}

// Forwarders builds a module with memory that re-exports each import under
// its own name, forwarding all arguments.
func Forwarders(imports ...Import) Module {
	m := Module{Imports: imports, Memory: true}
	for i, imp := range imports {
		var body []byte
		for p := range imp.Type.Params {
			body = append(body, LocalGet(uint32(p))...)
		}
		body = append(body, Call(uint32(i))...)
		m.Funcs = append(m.Funcs, Func{Name: imp.Name, Type: imp.Type, Body: body})
	}
	return m
}

// LocalGet encodes local.get idx.
func LocalGet(idx uint32) []byte { return uleb([]byte{0x20}, uint64(idx)) }

// Call encodes call idx. Imports come first in the function index space.
func Call(idx uint32) []byte { return uleb([]byte{0x10}, uint64(idx)) }

// I32Const encodes i32.const v.
func I32Const(v int32) []byte { return sleb([]byte{0x41}, int64(v)) }

// Drop encodes drop.
func Drop() []byte { return []byte{0x1a} }

// Bytes assembles the binary module.
func (m Module) Bytes() []byte {
	var types, imports, funcs, exports, bodies [][]byte
	for i, imp := range m.Imports {
		types = append(types, funcType(imp.Type))
		entry := append(name(imp.Module), name(imp.Name)...)
		entry = append(entry, 0x00)
		imports = append(imports, uleb(entry, uint64(i)))
	}
	for i, fn := range m.Funcs {
		typeIdx := uint64(len(m.Imports) + i)
		types = append(types, funcType(fn.Type))
		funcs = append(funcs, uleb(nil, typeIdx))
		if fn.Name != "" {
			entry := append(name(fn.Name), 0x00)
			exports = append(exports, uleb(entry, uint64(len(m.Imports)+i)))
		}
		body := append([]byte{0x00}, fn.Body...)
		body = append(body, 0x0b)
		bodies = append(bodies, append(uleb(nil, uint64(len(body))), body...))
	}
	if m.Memory {
		exports = append(exports, append(name("memory"), 0x02, 0x00))
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = section(out, 0x01, vec(types))
	if len(imports) > 0 {
		out = section(out, 0x02, vec(imports))
	}
	if len(funcs) > 0 {
		out = section(out, 0x03, vec(funcs))
	}
	if m.Memory {
		out = section(out, 0x05, []byte{0x01, 0x00, 0x01})
	}
	if len(exports) > 0 {
		out = section(out, 0x07, vec(exports))
	}
	if len(bodies) > 0 {
		out = section(out, 0x0a, vec(bodies))
	}
	return out
}

func funcType(ft FuncType) []byte {
	out := []byte{0x60}
	out = uleb(out, uint64(len(ft.Params)))
	for _, p := range ft.Params {
		out = append(out, p)
	}
	out = uleb(out, uint64(len(ft.Results)))
	for _, r := range ft.Results {
		out = append(out, r)
	}
	return out
}

func name(s string) []byte {
	return append(uleb(nil, uint64(len(s))), s...)
}

func vec(items [][]byte) []byte {
	out := uleb(nil, uint64(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func section(dst []byte, id byte, payload []byte) []byte {
	dst = uleb(append(dst, id), uint64(len(payload)))
	return append(dst, payload...)
}

func uleb(dst []byte, n uint64) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

func sleb(dst []byte, n int64) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// Package hostfuncs implements the host side of wasi_ephemeral_nn in pure Go.
// Nothing here depends on a WASM runtime: every function works against a
// ports.Memory, which wazero's api.Memory satisfies, so the same code serves
// a wazero host and the simulated memory used in tests.
package hostfuncs

// Package abi builds and reads the flat memory layouts exchanged with the
// wasi_ephemeral_nn host: graph-builder arrays of (pointer, length) pairs and
// the five-word tensor descriptor. It also provides the arenas that hand out
// host-visible addresses for one call at a time, and the packed ptr/len
// convention used by the SDK's own log channel.
//
// All multi-byte values are little-endian, matching wasm32.
package abi
